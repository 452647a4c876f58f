// Package db opens the metrics database (readings and body measurements)
// and keeps its schema and retention in order. PostgreSQL is used for postgres:// DSNs, a local
// SQLite file otherwise.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver is a database/sql driver name.
type Driver string

const (
	// Postgres is github.com/lib/pq.
	Postgres Driver = "postgres"
	// SQLite is modernc.org/sqlite.
	SQLite Driver = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
    id TEXT PRIMARY KEY,
    tracker TEXT NOT NULL,
    resting_heart_rate DOUBLE PRECISION NOT NULL,
    calories_burned DOUBLE PRECISION NOT NULL,
    recorded_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS readings_recorded_at_idx ON readings (recorded_at);

CREATE TABLE IF NOT EXISTS measurements (
    id TEXT PRIMARY KEY,
    recorded_at BIGINT NOT NULL,
    height DOUBLE PRECISION NOT NULL,
    weight DOUBLE PRECISION NOT NULL,
    source TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS measurements_recorded_at_idx ON measurements (recorded_at);
`

// DriverFor picks the driver for a DSN.
func DriverFor(dsn string) Driver {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open connects to the database named by dsn and ensures the schema.
func Open(dsn string) (*sql.DB, Driver, error) {
	driver := DriverFor(dsn)
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case Postgres:
		db, err = InitPostgres(dsn)
	default:
		db, err = InitSQLite(dsn)
	}
	return db, driver, err
}

// InitPostgres connects to PostgreSQL and creates the schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// InitSQLite opens (creating if needed) the SQLite file at path and
// creates the schema.
func InitSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// Rebind rewrites '?' placeholders into the driver's bind syntax.
func Rebind(driver Driver, query string) string {
	if driver != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
