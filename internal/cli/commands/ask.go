package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	Format string
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question and build a dashboard",
		Long: `Ask a natural-language question about the warehouse data.

The question is translated to SQL, executed, and the result profiled
into summary statistics, charts, and insights.

When invoked without arguments, enters interactive REPL mode.`,
		Example: `  # One-shot question
  leapdash ask "What is the average order value by region?"

  # Full dashboard as JSON
  leapdash ask "Show monthly revenue" --format json

  # Interactive mode
  leapdash ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format := opts.Format
	if format == "" {
		format = cmdCtx.Cfg.Output
	}

	if len(args) == 0 {
		return runAskREPL(cmd, cmdCtx, format)
	}

	question := strings.Join(args, " ")
	resp, err := cmdCtx.Engine.Ask(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	return renderResponse(cmd.OutOrStdout(), resp, format)
}
