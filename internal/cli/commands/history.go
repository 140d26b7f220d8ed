package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/slickdata/internal/history"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	Clear bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [connection]",
		Short: "Show or clear recently executed statements",
		Example: `  slickdata history
  slickdata history local --limit 5
  slickdata history local --clear`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeConnectionNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			if !cc.Cfg.History {
				return fmt.Errorf("history is disabled (history: false)")
			}
			ctx := cmd.Context()
			h, err := history.Open(ctx, cc.Cfg.HistoryFile, cc.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()

			connection := ""
			if len(args) == 1 {
				connection = args[0]
			}

			if opts.Clear {
				n, err := h.Clear(ctx, connection)
				if err != nil {
					return err
				}
				printf(cmd, "Deleted %d entries\n", n)
				return nil
			}

			entries, err := h.Recent(ctx, connection, opts.Limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Delete the entries instead of showing them")
	return cmd
}

func renderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(no history)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Connection", "SQL", "Rows", "Time", "Error"})
	for _, e := range entries {
		rows := humanize.Comma(int64(e.RowCount))
		if e.Failed() {
			rows = "-"
		}
		t.AppendRow(table.Row{
			humanize.Time(e.ExecutedAt),
			e.Connection,
			oneLine(e.SQL, 60),
			rows,
			e.Duration.Round(time.Millisecond),
			e.Error,
		})
	}
	t.Render()
}

// oneLine collapses whitespace and truncates s to max runes.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
