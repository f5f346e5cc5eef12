package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdash/internal/engine"
)

// SchemaOptions holds options for the schema command.
type SchemaOptions struct {
	Format string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	opts := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the warehouse schema",
		Long: `Discover and display the warehouse tables and columns used as
context for query generation.`,
		Example: `  leapdash schema
  leapdash schema --format json
  leapdash schema refresh`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, opts, false)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, text")

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Rediscover the warehouse schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, opts, true)
		},
	})

	return cmd
}

func runSchema(cmd *cobra.Command, opts *SchemaOptions, refresh bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var sc *engine.SchemaContext
	if refresh {
		sc, err = cmdCtx.Engine.RefreshSchema(cmd.Context())
	} else {
		sc, err = cmdCtx.Engine.SchemaContext(cmd.Context())
	}
	if err != nil {
		return err
	}

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sc)
	case "text":
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), sc.Text)
		return nil
	default:
		for _, ts := range sc.Tables {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Table: %s\n", ts.Name)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Column", "Type", "Nullable"})
			for _, col := range ts.Columns {
				nullable := "NO"
				if col.Nullable {
					nullable = "YES"
				}
				t.AppendRow(table.Row{col.Name, col.Type, nullable})
			}
			t.Render()
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	}
}
