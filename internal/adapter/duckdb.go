package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Adapter { return NewDuckDB(logger) })
}

// DuckDB implements the Adapter interface for DuckDB.
type DuckDB struct {
	base
}

// NewDuckDB creates a new DuckDB adapter instance. If logger is nil, a
// discard logger is used.
func NewDuckDB(logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDB{base: base{Logger: logger}}
}

// DialectName returns the SQL dialect name for this adapter.
func (a *DuckDB) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB. Use ":memory:" as the
// path for an in-memory database.
func (a *DuckDB) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// TableNames lists the user tables in the main schema.
func (a *DuckDB) TableNames(ctx context.Context) ([]string, error) {
	return a.queryStrings(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
}

// TableColumns retrieves column metadata for a table.
func (a *DuckDB) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	schema := "main"
	name := table
	if parts := strings.Split(table, "."); len(parts) == 2 {
		schema, name = parts[0], parts[1]
	}
	return a.tableColumnsFromInformationSchema(ctx, schema, name, "?", "?")
}

// LoadCSV loads a CSV file into a table using DuckDB's native
// read_csv_auto with schema inference.
func (a *DuckDB) LoadCSV(ctx context.Context, tableName, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve CSV path: %w", err)
	}
	escaped := strings.ReplaceAll(absPath, "'", "''")

	stmt := fmt.Sprintf(
		`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)`,
		quoteIdent(tableName), escaped)
	if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to load CSV into %s: %w", tableName, err)
	}

	a.Logger.Debug("loaded CSV", slog.String("table", tableName), slog.String("path", absPath))
	return nil
}

// quoteIdent quotes a SQL identifier with double quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
