// Package adapter provides the warehouse boundary: database adapters
// that execute SQL and return materialized result tables. Queries are
// all-or-nothing; an adapter never returns a partial table.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapdash/internal/dataset"
)

// Config holds the configuration for connecting to a warehouse.
type Config struct {
	// Type specifies the database type (e.g., "duckdb", "sqlite",
	// "postgres").
	Type string

	// Path is the file path for file-based databases. Use ":memory:"
	// for an in-memory database.
	Path string

	// Host is the hostname for network-based databases.
	Host string

	// Port is the port number for network-based databases.
	Port int

	// Database is the database name.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Schema is the default schema to use.
	Schema string

	// Options contains additional driver-specific options.
	Options map[string]string
}

// ColumnInfo describes one column of a warehouse table.
type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Adapter is the interface every warehouse adapter implements.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement and materializes the full result
	// set into a table. Errors are all-or-nothing: on failure no table
	// is returned.
	Query(ctx context.Context, sql string) (*dataset.Table, error)

	// TableNames lists the user tables visible in the default schema.
	TableNames(ctx context.Context) ([]string, error)

	// TableColumns retrieves column metadata for a table.
	TableColumns(ctx context.Context, table string) ([]ColumnInfo, error)

	// LoadCSV loads data from a CSV file into a table, creating the
	// table with an inferred schema if it doesn't exist.
	LoadCSV(ctx context.Context, tableName, filePath string) error

	// DialectName returns the SQL dialect name for this adapter.
	DialectName() string
}
