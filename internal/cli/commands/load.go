package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var tableName string

	cmd := &cobra.Command{
		Use:   "load <file.csv> [file.csv...]",
		Short: "Load CSV files into the warehouse",
		Long: `Load one or more CSV files into warehouse tables.

The table name defaults to the file name without extension. Column
types are inferred from the data.`,
		Example: `  leapdash load sales.csv
  leapdash load data/orders.csv --table orders_raw
  leapdash load *.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tableName != "" && len(args) > 1 {
				return fmt.Errorf("--table can only be used with a single file")
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, path := range args {
				name := tableName
				if name == "" {
					name = tableNameFromPath(path)
				}
				if err := cmdCtx.Engine.LoadCSV(cmd.Context(), name, path); err != nil {
					return fmt.Errorf("failed to load %s: %w", path, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s into table %s\n", path, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tableName, "table", "t", "", "Target table name (default: file name)")
	return cmd
}

// tableNameFromPath derives a SQL-friendly table name from a file
// path.
func tableNameFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ToLower(name)
	replacer := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return replacer.Replace(name)
}
