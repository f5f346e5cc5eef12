package dataset

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryMockRows(t *testing.T, rows *sqlmock.Rows) *sql.Rows {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	res, err := db.Query("SELECT 1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })
	return res
}

func TestFromRowsNormalizesDriverValues(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"amount", "region", "active", "created_at", "note"}).
		AddRow(int64(10), "north", true, when, []byte("raw")).
		AddRow(2.5, "south", false, when.Add(time.Hour), nil)

	tbl, err := FromRows(queryMockRows(t, rows))
	require.NoError(t, err)

	require.Equal(t, 2, tbl.RowCount())
	require.Equal(t, []string{"amount", "region", "active", "created_at", "note"}, tbl.ColumnNames())

	amount, _ := tbl.Column("amount")
	assert.Equal(t, []any{10.0, 2.5}, amount.Values)

	active, _ := tbl.Column("active")
	assert.Equal(t, []any{"true", "false"}, active.Values)

	created, _ := tbl.Column("created_at")
	assert.Equal(t, []any{when, when.Add(time.Hour)}, created.Values)

	note, _ := tbl.Column("note")
	assert.Equal(t, []any{"raw", nil}, note.Values)
}

func TestFromRowsEmptyResult(t *testing.T) {
	rows := sqlmock.NewRows([]string{"a", "b"})

	tbl, err := FromRows(queryMockRows(t, rows))
	require.NoError(t, err)

	assert.Equal(t, 0, tbl.RowCount())
	assert.Equal(t, 2, tbl.ColumnCount())
}
