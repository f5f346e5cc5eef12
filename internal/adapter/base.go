package adapter

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdash/internal/dataset"
)

// base provides common database/sql functionality. Concrete adapters
// embed it to get standard Close, Exec, Query, and metadata
// implementations.
type base struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *base) Close() error {
	if b.DB != nil {
		b.Logger.Debug("closing database connection")
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *base) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := b.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement and materializes the result set.
func (b *base) Query(ctx context.Context, sqlStr string) (*dataset.Table, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	table, err := dataset.FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize result: %w", err)
	}
	return table, nil
}

// queryStrings runs a query expected to return a single string column.
func (b *base) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata: %w", err)
	}
	return out, nil
}

// tableColumnsFromInformationSchema is the shared TableColumns
// implementation for dialects exposing information_schema, with the
// dialect's placeholder style.
func (b *base) tableColumnsFromInformationSchema(ctx context.Context, schema, table, p1, p2 string) ([]ColumnInfo, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, p1, p2)

	rows, err := b.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return cols, nil
}

// loadCSVWithInserts is a portable LoadCSV implementation: it infers a
// schema from the CSV contents and inserts row by row in one
// transaction. Used by adapters whose engine has no native CSV reader.
func (b *base) loadCSVWithInserts(ctx context.Context, tableName, filePath string, quote func(string) string, placeholder func(int) string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(records) < 1 {
		return fmt.Errorf("CSV file %s is empty", filePath)
	}

	header := records[0]
	data := records[1:]
	types := inferCSVTypes(header, data)

	colDefs := make([]string, len(header))
	for i, name := range header {
		colDefs[i] = fmt.Sprintf("%s %s", quote(name), types[i])
	}
	createStmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quote(tableName), strings.Join(colDefs, ", "))
	if _, err := b.DB.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	placeholders := make([]string, len(header))
	for i := range header {
		placeholders[i] = placeholder(i + 1)
	}
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quote(tableName), strings.Join(placeholders, ", "))

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range data {
		args := make([]any, len(header))
		for i := range header {
			if i >= len(record) || record[i] == "" {
				args[i] = nil
				continue
			}
			if types[i] == "DOUBLE PRECISION" || types[i] == "DOUBLE" || types[i] == "REAL" {
				if f, err := strconv.ParseFloat(record[i], 64); err == nil {
					args[i] = f
					continue
				}
			}
			args[i] = record[i]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert CSV row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit CSV load: %w", err)
	}
	b.Logger.Debug("loaded CSV", slog.String("table", tableName), slog.Int("rows", len(data)))
	return nil
}

// inferCSVTypes picks a numeric type per column when every non-empty
// value parses as a number, text otherwise.
func inferCSVTypes(header []string, data [][]string) []string {
	types := make([]string, len(header))
	for i := range header {
		numeric := false
		for _, record := range data {
			if i >= len(record) || record[i] == "" {
				continue
			}
			if _, err := strconv.ParseFloat(record[i], 64); err != nil {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			types[i] = "DOUBLE PRECISION"
		} else {
			types[i] = "TEXT"
		}
	}
	return types
}
