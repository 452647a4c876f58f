// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON config
// file and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN selects the readings database. A postgres:// URL uses
	// PostgreSQL, anything else is treated as a SQLite file path.
	DatabaseDSN string `json:"database_dsn"`

	// DataDir is the directory holding secrets.json and config.json.
	DataDir string `json:"data_dir"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// RetentionDays is how long metric readings are kept.
	RetentionDays int `json:"retention_days"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Retention returns RetentionDays as a duration.
func (o *Options) Retention() time.Duration {
	return time.Duration(o.RetentionDays) * 24 * time.Hour
}

// TLSEnabled reports whether both certificate and key are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

// Parse parses the process command line and environment. It exits the
// process on malformed configuration.
func Parse() *Options {
	opts, err := ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return opts
}

// ParseArgs registers the flags on fs, parses args and applies the config
// file and environment variables, in that order of increasing precedence
// over the flag defaults. Explicitly set flags are not overridden by the
// config file.
func ParseArgs(fs *flag.FlagSet, args []string) (*Options, error) {
	options := &Options{}

	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "data/fit.db", "readings database (postgres:// URL or sqlite file)")
	fs.StringVar(&options.DataDir, "data", "data", "directory for tracker secrets and config")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to TLS private key")
	fs.IntVar(&options.RetentionDays, "retention", 90, "days to keep metric readings")
	fs.StringVar(&options.Config, "config", "", "path to config file")
	fs.StringVar(&options.Config, "c", "", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if err := applyFile(fs, options); err != nil {
			return nil, err
		}
	}

	applyEnv(options)

	if options.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %d", options.RetentionDays)
	}
	return options, nil
}

// applyFile loads the JSON config file on top of the defaults while
// keeping the values of flags given on the command line.
func applyFile(fs *flag.FlagSet, options *Options) error {
	if _, err := os.Stat(options.Config); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat config file: %w", err)
	}
	data, err := os.ReadFile(options.Config)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	explicit := *options
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := json.Unmarshal(data, options); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	if set["a"] {
		options.Port = explicit.Port
	}
	if set["d"] {
		options.DatabaseDSN = explicit.DatabaseDSN
	}
	if set["data"] {
		options.DataDir = explicit.DataDir
	}
	if set["l"] {
		options.LogLevel = explicit.LogLevel
	}
	if set["tls-cert"] {
		options.TLSCert = explicit.TLSCert
	}
	if set["tls-key"] {
		options.TLSKey = explicit.TLSKey
	}
	if set["retention"] {
		options.RetentionDays = explicit.RetentionDays
	}
	return nil
}

func applyEnv(options *Options) {
	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		options.DataDir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	if days, err := strconv.Atoi(os.Getenv("RETENTION_DAYS")); err == nil {
		options.RetentionDays = days
	}
}
