package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/testutil"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	a := NewSQLite(testutil.NewTestLogger(t))
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, a.Connect(context.Background(), Config{Type: "sqlite", Path: path}))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func seedOrders(t *testing.T, a *SQLite) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.Exec(ctx, `CREATE TABLE orders (region TEXT, amount REAL)`))
	require.NoError(t, a.Exec(ctx, `INSERT INTO orders VALUES ('north', 10.5), ('south', 20.0), ('north', NULL)`))
}

func TestSQLiteQueryMaterializesTable(t *testing.T) {
	a := newTestSQLite(t)
	seedOrders(t, a)

	tbl, err := a.Query(context.Background(), `SELECT region, amount FROM orders ORDER BY amount`)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.RowCount())
	require.Equal(t, 2, tbl.ColumnCount())

	region, ok := tbl.Column("region")
	require.True(t, ok)
	assert.Len(t, region.Values, 3)

	amount, ok := tbl.Column("amount")
	require.True(t, ok)
	assert.Contains(t, amount.Values, 10.5)
	assert.Contains(t, amount.Values, nil)
}

func TestSQLiteQueryError(t *testing.T) {
	a := newTestSQLite(t)

	_, err := a.Query(context.Background(), `SELECT * FROM missing_table`)
	assert.Error(t, err)
}

func TestSQLiteQueryWithoutConnection(t *testing.T) {
	a := NewSQLite(nil)
	_, err := a.Query(context.Background(), `SELECT 1`)
	assert.ErrorContains(t, err, "connection not established")
}

func TestSQLiteTableNames(t *testing.T) {
	a := newTestSQLite(t)
	seedOrders(t, a)
	require.NoError(t, a.Exec(context.Background(), `CREATE TABLE customers (id INTEGER)`))

	names, err := a.TableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, names)
}

func TestSQLiteTableColumns(t *testing.T) {
	a := newTestSQLite(t)
	seedOrders(t, a)

	cols, err := a.TableColumns(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "region", cols[0].Name)
	assert.Equal(t, "TEXT", cols[0].Type)
	assert.True(t, cols[0].Nullable)
	assert.Equal(t, 1, cols[0].Position)

	assert.Equal(t, "amount", cols[1].Name)
	assert.Equal(t, "REAL", cols[1].Type)
}

func TestSQLiteTableColumnsMissingTable(t *testing.T) {
	a := newTestSQLite(t)

	_, err := a.TableColumns(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteLoadCSV(t *testing.T) {
	a := newTestSQLite(t)

	csvPath := filepath.Join(t.TempDir(), "sales.csv")
	content := "region,amount\nnorth,10.5\nsouth,20\neast,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))

	ctx := context.Background()
	require.NoError(t, a.LoadCSV(ctx, "sales", csvPath))

	tbl, err := a.Query(ctx, `SELECT region, amount FROM sales`)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.RowCount())

	amount, ok := tbl.Column("amount")
	require.True(t, ok)
	assert.Contains(t, amount.Values, 10.5)
	// The empty cell loads as NULL, not zero.
	assert.Contains(t, amount.Values, nil)
}

func TestSQLiteLoadCSVEmptyFile(t *testing.T) {
	a := newTestSQLite(t)

	csvPath := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(csvPath, nil, 0o644))

	err := a.LoadCSV(context.Background(), "empty", csvPath)
	assert.ErrorContains(t, err, "empty")
}

func TestSQLiteLoadCSVMissingFile(t *testing.T) {
	a := newTestSQLite(t)
	err := a.LoadCSV(context.Background(), "t", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestSQLiteInMemoryConnect(t *testing.T) {
	a := NewSQLite(testutil.NewTestLogger(t))
	ctx := context.Background()
	require.NoError(t, a.Connect(ctx, Config{Type: "sqlite"}))
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Exec(ctx, `CREATE TABLE t (v REAL)`))
	require.NoError(t, a.Exec(ctx, `INSERT INTO t VALUES (1), (2)`))

	tbl, err := a.Query(ctx, `SELECT v FROM t`)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.RowCount())
}

func TestInferCSVTypes(t *testing.T) {
	header := []string{"a", "b", "c"}
	data := [][]string{
		{"1.5", "x", ""},
		{"2", "3", "4"},
	}
	types := inferCSVTypes(header, data)
	assert.Equal(t, "DOUBLE PRECISION", types[0])
	assert.Equal(t, "TEXT", types[1])
	assert.Equal(t, "DOUBLE PRECISION", types[2])
}
