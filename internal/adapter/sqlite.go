package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Adapter { return NewSQLite(logger) })
}

// SQLite implements the Adapter interface for SQLite via the pure-Go
// modernc driver.
type SQLite struct {
	base
}

// NewSQLite creates a new SQLite adapter instance. If logger is nil, a
// discard logger is used.
func NewSQLite(logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLite{base: base{Logger: logger}}
}

// DialectName returns the SQL dialect name for this adapter.
func (a *SQLite) DialectName() string {
	return "sqlite"
}

// Connect establishes a connection to SQLite. Use ":memory:" as the
// path for an in-memory database.
func (a *SQLite) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection gets its own in-memory database, so
		// the pool must stay at one connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// TableNames lists the user tables in the database.
func (a *SQLite) TableNames(ctx context.Context) ([]string, error) {
	return a.queryStrings(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
}

// TableColumns retrieves column metadata for a table using PRAGMA
// table_info.
func (a *SQLite) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		cols = append(cols, ColumnInfo{
			Name:     name,
			Type:     ctype,
			Nullable: notNull == 0,
			Position: cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return cols, nil
}

// LoadCSV loads a CSV file into a table with an inferred schema.
func (a *SQLite) LoadCSV(ctx context.Context, tableName, filePath string) error {
	return a.loadCSVWithInserts(ctx, tableName, filePath, quoteIdent, func(int) string { return "?" })
}
