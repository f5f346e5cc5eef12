package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func runAskREPL(cmd *cobra.Command, cmdCtx *CommandContext, format string) error {
	ctx := cmd.Context()

	historyFile := filepath.Join(os.TempDir(), "leapdash_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "leapdash> ",
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Leapdash REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Ask questions in plain language. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleAskDotCommand(cmd, cmdCtx, line); quit {
				break
			}
			continue
		}

		resp, err := cmdCtx.Engine.Ask(ctx, line)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		if err := renderResponse(cmd.OutOrStdout(), resp, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleAskDotCommand processes a dot-command and reports whether the
// REPL should exit.
func handleAskDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printAskREPLHelp(cmd.OutOrStdout())

	case ".schema":
		sc, err := cmdCtx.Engine.SchemaContext(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), sc.Text)

	case ".refresh":
		sc, err := cmdCtx.Engine.RefreshSchema(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema refreshed (%d tables)\n", len(sc.Tables))

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", line)
	}
	return false
}

func printAskREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .schema         Show the warehouse schema
  .refresh        Rediscover the warehouse schema
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Anything else is treated as a question about the data.
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".schema"),
		readline.PcItem(".refresh"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
