package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/config"
	"github.com/leapstack-labs/slickdata/internal/history"
	"github.com/leapstack-labs/slickdata/internal/results"
	"github.com/spf13/cobra"
)

const (
	replPrompt         = "slickdata> "
	replContinuePrompt = "      ...> "
	replHistoryLimit   = 20
)

// repl is the interactive session state, separate from the terminal so
// it can be driven line by line.
type repl struct {
	client  *client.Client
	view    *results.View
	history *history.Store
	format  string
	out     io.Writer
	errOut  io.Writer

	buf strings.Builder
}

func newREPL(c *client.Client, h *history.Store, cc *CommandContext, format string, out, errOut io.Writer) *repl {
	rec := history.NewRecorder(c, h, c.Name(), cc.Logger)
	return &repl{
		client:  c,
		view:    results.NewView(results.WithExecutor(rec), results.WithLogger(cc.Logger)),
		history: h,
		format:  format,
		out:     out,
		errOut:  errOut,
	}
}

func runQueryREPL(cmd *cobra.Command, cc *CommandContext, name, format string) error {
	ctx := cmd.Context()

	c, err := cc.Open(ctx, name)
	if err != nil {
		return err
	}
	defer c.Release()

	h := cc.OpenHistory(ctx)
	defer closeHistory(h)

	r := newREPL(c, h, cc, format, cmd.OutOrStdout(), cmd.ErrOrStderr())

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(cc.Cfg.Dir, "query_history"),
		AutoComplete:    r.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(r.out, "slickdata REPL (%s)\n", c.Config())
	_, _ = fmt.Fprintln(r.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit := r.handleLine(ctx, line)
		if quit {
			return nil
		}
		if r.pending() {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// pending reports whether a statement is being continued.
func (r *repl) pending() bool {
	return r.buf.Len() > 0
}

// handleLine processes one input line and reports whether to quit.
func (r *repl) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !r.pending() && strings.HasPrefix(line, ".") {
		return r.dotCommand(ctx, line)
	}

	// Accumulate multi-line SQL until semicolon
	r.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		r.buf.WriteString("\n")
		return false
	}

	query := r.buf.String()
	r.buf.Reset()

	if err := r.view.Run(ctx, query); err != nil {
		r.printError(err)
		return false
	}
	r.render()
	return false
}

func (r *repl) render() {
	res, _ := r.view.Snapshot()
	if err := renderResult(r.out, res, r.format); err != nil {
		r.printError(err)
	}
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) printError(err error) {
	_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
}

func (r *repl) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.out)

	case ".tables":
		tables, err := r.client.Tables(ctx)
		if err != nil {
			r.printError(err)
			return false
		}
		if err := renderResult(r.out, tablesResult(tables), r.format); err != nil {
			r.printError(err)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .schema <table>")
			return false
		}
		columns, err := r.client.Columns(ctx, parts[1])
		if err != nil {
			r.printError(err)
			return false
		}
		if err := renderResult(r.out, columnsResult(columns), r.format); err != nil {
			r.printError(err)
		}

	case ".sort":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .sort <column> [asc|desc|default]")
			return false
		}
		dirText := ""
		if len(parts) > 2 {
			dirText = parts[2]
		}
		dir, ok := results.ParseDirection(dirText)
		if !ok {
			_, _ = fmt.Fprintf(r.errOut, "Unknown direction %q (asc, desc or default)\n", dirText)
			return false
		}
		if err := r.view.Sort(ctx, parts[1], dir); err != nil {
			r.printError(err)
			return false
		}
		r.render()

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(r.out, "Current format: %s\n", r.format)
			return false
		}
		f := strings.ToLower(parts[1])
		if f == "markdown" {
			f = "md"
		}
		if !slices.Contains(config.OutputFormats, f) {
			_, _ = fmt.Fprintf(r.errOut, "Unknown format %q (%s)\n", parts[1], strings.Join(config.OutputFormats, ", "))
			return false
		}
		r.format = f

	case ".history":
		if r.history == nil {
			_, _ = fmt.Fprintln(r.errOut, "History is disabled")
			return false
		}
		entries, err := r.history.Recent(ctx, r.client.Name(), replHistoryLimit)
		if err != nil {
			r.printError(err)
			return false
		}
		renderHistory(r.out, entries)

	case ".clear":
		_, _ = fmt.Fprint(r.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                              Show this help message
  .tables                            List all tables
  .schema <table>                    Show the columns of a table
  .sort <column> [asc|desc|default]  Sort the last result (no direction toggles)
  .format <table|json|csv|md|yaml>   Change the output format
  .history                           Show recent statements
  .clear                             Clear the screen
  .quit / .exit                      Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer offers table names and dot-commands. A failed table lookup
// leaves only the dot-commands.
func (r *repl) completer(ctx context.Context) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	if tables, err := r.client.Tables(ctx); err == nil {
		for _, t := range tables {
			items = append(items, readline.PcItem(t.QualifiedName()))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".sort"),
		readline.PcItem(".format",
			readline.PcItem("table"), readline.PcItem("json"), readline.PcItem("csv"),
			readline.PcItem("md"), readline.PcItem("yaml")),
		readline.PcItem(".history"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
