package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/slickdata/internal/history"
	"github.com/leapstack-labs/slickdata/internal/results"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
	Sort   string
	Desc   bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <connection> [SQL]",
		Short: "Run SQL against a saved connection",
		Long: `Run a SQL statement against a saved connection and print the result.

SQL is taken from the arguments, from --input, or from piped stdin.
With none of those and a terminal on stdin, an interactive REPL starts.

--sort re-runs the statement with its ORDER BY replaced by one on the
given column.`,
		Example: `  # Execute SQL directly
  slickdata query local "SELECT * FROM people"

  # Sorted by a column, descending
  slickdata query local "SELECT * FROM people" --sort age --desc

  # Output as CSV
  slickdata query prod "SELECT * FROM orders LIMIT 10" --format csv

  # Interactive mode
  slickdata query local`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeConnectionNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md, yaml (default: --output)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Sort the result by this column")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending (with --sort)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc, cleanup := NewCommandContext(cmd)
	defer cleanup()

	format := opts.Format
	if format == "" {
		format = cc.Cfg.Output
	}

	var sqlQuery string
	switch {
	case len(args) > 1:
		sqlQuery = strings.Join(args[1:], " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return runQueryREPL(cmd, cc, args[0], format)
	}

	ctx := cmd.Context()
	c, err := cc.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer c.Release()

	h := cc.OpenHistory(ctx)
	defer closeHistory(h)

	rec := history.NewRecorder(c, h, c.Name(), cc.Logger)
	view := results.NewView(results.WithExecutor(rec), results.WithLogger(cc.Logger))
	if err := view.Run(ctx, sqlQuery); err != nil {
		return err
	}

	if opts.Sort != "" {
		dir := results.Ascending
		if opts.Desc {
			dir = results.Descending
		}
		if err := view.Sort(ctx, opts.Sort, dir); err != nil {
			return err
		}
	}

	res, _ := view.Snapshot()
	return renderResult(cmd.OutOrStdout(), res, format)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
