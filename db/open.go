package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	// Registers the "cloudsqlpostgres" driver.
	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/postgres"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres         = "postgres"
	DriverCloudSQLPostgres = "cloudsqlpostgres"
	DriverSQLite           = "sqlite"
)

// Options selects a driver and how to reach the database.
type Options struct {
	Driver string
	URL    string

	// Cloud SQL settings, used with DriverCloudSQLPostgres.
	CloudSQLConnectionName string
	CloudSQLUser           string
	CloudSQLPassword       string
	CloudSQLDatabase       string
}

// Open returns a connection pool for opts. It does not ping the database.
func Open(opts Options) (*sql.DB, error) {
	var dsn string
	switch opts.Driver {
	case DriverPostgres, DriverSQLite:
		dsn = opts.URL
	case DriverCloudSQLPostgres:
		dsn = fmt.Sprintf("host=%s dbname=%s user=%s password=%s sslmode=disable",
			opts.CloudSQLConnectionName, opts.CloudSQLDatabase, opts.CloudSQLUser, opts.CloudSQLPassword)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("no connection string for driver %q", opts.Driver)
	}

	conn, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}
	if opts.Driver == DriverSQLite {
		// SQLite allows a single writer.
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

//go:embed schema.sql
var schema string

// Migrate creates any missing tables. Statements are idempotent.
func Migrate(ctx context.Context, db Querier) error {
	for _, stmt := range statements(schema) {
		if _, err := LogAndExec(ctx, db, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func statements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
