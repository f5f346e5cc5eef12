package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdash/internal/adapter"
)

// TableSchema is the discovered shape of one warehouse table.
type TableSchema struct {
	Name    string               `json:"name"`
	Columns []adapter.ColumnInfo `json:"columns"`
}

// SchemaContext is a point-in-time snapshot of the warehouse schema,
// both structured and rendered as the text block handed to the query
// generator. Snapshots are immutable once built; refresh replaces the
// whole snapshot.
type SchemaContext struct {
	Tables      []TableSchema `json:"tables"`
	Text        string        `json:"text"`
	RefreshedAt time.Time     `json:"refreshed_at"`
}

// BuildSchemaContext discovers the warehouse tables and columns and
// renders the schema text.
func BuildSchemaContext(ctx context.Context, a adapter.Adapter) (*SchemaContext, error) {
	names, err := a.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	sc := &SchemaContext{RefreshedAt: time.Now().UTC()}
	var b strings.Builder
	for _, name := range names {
		cols, err := a.TableColumns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
		}
		sc.Tables = append(sc.Tables, TableSchema{Name: name, Columns: cols})

		fmt.Fprintf(&b, "Table: %s\n", name)
		for _, col := range cols {
			nullable := "not null"
			if col.Nullable {
				nullable = "nullable"
			}
			fmt.Fprintf(&b, "  - %s (%s, %s)\n", col.Name, col.Type, nullable)
		}
		b.WriteString("\n")
	}
	sc.Text = strings.TrimRight(b.String(), "\n")

	if len(sc.Tables) == 0 {
		return nil, fmt.Errorf("no tables found in warehouse")
	}
	return sc, nil
}
