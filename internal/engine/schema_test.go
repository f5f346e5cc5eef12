package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdash/internal/adapter"
)

// schemaAdapter overrides just the metadata calls of fakeAdapter.
type schemaAdapter struct {
	fakeAdapter
	names    []string
	namesErr error
	colsErr  error
}

func (s *schemaAdapter) TableNames(context.Context) ([]string, error) {
	return s.names, s.namesErr
}

func (s *schemaAdapter) TableColumns(_ context.Context, table string) ([]adapter.ColumnInfo, error) {
	if s.colsErr != nil {
		return nil, s.colsErr
	}
	return []adapter.ColumnInfo{
		{Name: table + "_id", Type: "INTEGER", Nullable: false, Position: 1},
		{Name: "note", Type: "TEXT", Nullable: true, Position: 2},
	}, nil
}

func TestBuildSchemaContextRendersText(t *testing.T) {
	a := &schemaAdapter{names: []string{"orders", "customers"}}

	sc, err := BuildSchemaContext(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, sc.Tables, 2)
	assert.Equal(t, "orders", sc.Tables[0].Name)
	assert.False(t, sc.RefreshedAt.IsZero())

	assert.Contains(t, sc.Text, "Table: orders")
	assert.Contains(t, sc.Text, "  - orders_id (INTEGER, not null)")
	assert.Contains(t, sc.Text, "  - note (TEXT, nullable)")
	assert.Contains(t, sc.Text, "Table: customers")
	assert.False(t, strings.HasSuffix(sc.Text, "\n"))
}

func TestBuildSchemaContextNoTables(t *testing.T) {
	a := &schemaAdapter{}

	_, err := BuildSchemaContext(context.Background(), a)
	assert.ErrorContains(t, err, "no tables found")
}

func TestBuildSchemaContextListError(t *testing.T) {
	a := &schemaAdapter{namesErr: errors.New("connection lost")}

	_, err := BuildSchemaContext(context.Background(), a)
	assert.ErrorContains(t, err, "failed to list tables")
}

func TestBuildSchemaContextDescribeError(t *testing.T) {
	a := &schemaAdapter{names: []string{"orders"}, colsErr: errors.New("permission denied")}

	_, err := BuildSchemaContext(context.Background(), a)
	assert.ErrorContains(t, err, "failed to describe table orders")
}
