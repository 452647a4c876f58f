package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func TestParseArgs_Defaults(t *testing.T) {
	opts, err := ParseArgs(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Port)
	assert.Equal(t, "data/fit.db", opts.DatabaseDSN)
	assert.Equal(t, "data", opts.DataDir)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, 90*24*time.Hour, opts.Retention())
	assert.False(t, opts.TLSEnabled())
}

func TestParseArgs_Flags(t *testing.T) {
	opts, err := ParseArgs(newFlagSet(), []string{
		"-a", ":9090", "-data", "/tmp/fit", "-tls-cert", "c.pem", "-tls-key", "k.pem",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9090", opts.Port)
	assert.Equal(t, "/tmp/fit", opts.DataDir)
	assert.True(t, opts.TLSEnabled())
}

func TestParseArgs_ConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fit.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"port":":7000","data_dir":"/srv/fit","log_level":"debug","retention_days":7}`), 0o600))

	t.Setenv("LOG_LEVEL", "warn")

	opts, err := ParseArgs(newFlagSet(), []string{"-c", path, "-a", ":7100"})
	require.NoError(t, err)

	assert.Equal(t, ":7100", opts.Port, "explicit flag wins over file")
	assert.Equal(t, "/srv/fit", opts.DataDir)
	assert.Equal(t, "warn", opts.LogLevel, "env wins over file")
	assert.Equal(t, 7*24*time.Hour, opts.Retention())
}

func TestParseArgs_MissingConfigFileIgnored(t *testing.T) {
	opts, err := ParseArgs(newFlagSet(), []string{"-config", filepath.Join(t.TempDir(), "nope.json")})
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", opts.Port)
}

func TestParseArgs_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := ParseArgs(newFlagSet(), []string{"-c", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestParseArgs_InvalidRetention(t *testing.T) {
	_, err := ParseArgs(newFlagSet(), []string{"-retention", "0"})
	assert.Error(t, err)
}
