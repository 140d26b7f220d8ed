package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/credstore"
	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewConnectionsCommand creates the connections command and its subcommands.
func NewConnectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn", "connection"},
		Short:   "Manage saved connections",
		Long: `Manage the saved connection list.

Connection strings are stored in the OS keyring when available. A plaintext
copy is also kept in connections.json so the tool works without one.`,
	}

	cmd.AddCommand(newConnectionsListCommand())
	cmd.AddCommand(newConnectionsAddCommand())
	cmd.AddCommand(newConnectionsRemoveCommand())
	cmd.AddCommand(newConnectionsCheckCommand())

	return cmd
}

func newConnectionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved connections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			conns, err := cc.Store.Load()
			if err != nil {
				return err
			}
			if len(conns) == 0 {
				printf(cmd, "No saved connections. Add one with 'slickdata connections add'.\n")
				return nil
			}

			res := &core.QueryResult{Columns: []string{"name", "type", "target", "usable"}}
			for _, c := range conns {
				res.Rows = append(res.Rows, []string{c.Name, c.DBType.String(), maskSecret(c.ConnectionString), yesNo(c.Usable())})
			}
			return renderResult(cmd.OutOrStdout(), res, cc.Cfg.Output)
		},
	}
}

type addOptions struct {
	Type string
	URL  string
}

func newConnectionsAddCommand() *cobra.Command {
	opts := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save a new connection",
		Example: `  slickdata connections add local --type sqlite --url sqlite:///home/me/app.db
  slickdata connections add prod --type postgres --url postgres://user:pass@db:5432/app
  slickdata connections add wh --type duckdb --url "duckdb:///data/wh.duckdb?extensions=httpfs"
  slickdata connections add shop --type mysql --url mysql://user:pass@db:3306/shop`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := core.ParseDatabaseType(opts.Type)
			if err != nil {
				return err
			}

			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			conns, err := cc.Store.Load()
			if err != nil {
				return err
			}
			cfg := core.ConnectionConfig{Name: args[0], DBType: kind, ConnectionString: opts.URL}
			if _, report, err := cc.Store.Add(conns, cfg); err != nil {
				return err
			} else if len(report.SecureFailures) > 0 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
					"Warning: secure storage unavailable; the connection string is only stored in "+cc.Store.Path())
			}

			printf(cmd, "Saved connection %s\n", cfg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "Database type: sqlite, postgres, duckdb, mysql")
	cmd.Flags().StringVarP(&opts.URL, "url", "u", "", "Connection string or file path")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		kinds := make([]string, 0, len(core.DatabaseTypes()))
		for _, k := range core.DatabaseTypes() {
			kinds = append(kinds, strings.ToLower(k.String()))
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newConnectionsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <name>",
		Aliases:           []string{"rm"},
		Short:             "Delete a saved connection",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeConnectionNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			conns, err := cc.Store.Load()
			if err != nil {
				return err
			}
			if _, err := cc.Store.Remove(conns, args[0]); err != nil {
				return err
			}
			printf(cmd, "Removed connection %s\n", args[0])
			return nil
		},
	}
}

// checkResult is the outcome of probing one connection.
type checkResult struct {
	Name    string
	Kind    core.DatabaseType
	Tables  int
	Elapsed time.Duration
	Err     error
}

func newConnectionsCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "check [name...]",
		Short:             "Connect to saved connections and list their tables",
		Long:              `Connect to each named connection (all when none are given) concurrently and report whether it works.`,
		ValidArgsFunction: completeConnectionNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			conns, err := cc.Store.Load()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				var selected []core.ConnectionConfig
				for _, name := range args {
					idx := credstore.Find(conns, name)
					if idx < 0 {
						return core.InvalidInputf("no connection named %q", name)
					}
					selected = append(selected, conns[idx])
				}
				conns = selected
			}

			results := checkConnections(cmd.Context(), cc, conns)
			failed := printCheckResults(cmd.OutOrStdout(), results)
			if failed > 0 {
				return fmt.Errorf("%d of %d connections failed", failed, len(results))
			}
			return nil
		},
	}
}

// checkConnections probes every connection concurrently. Failures are
// collected per connection rather than cancelling the others.
func checkConnections(ctx context.Context, cc *CommandContext, conns []core.ConnectionConfig) []checkResult {
	out := make([]checkResult, len(conns))
	g, gctx := errgroup.WithContext(ctx)

	for i, conn := range conns {
		g.Go(func() error {
			out[i] = checkConnection(gctx, cc, conn)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func checkConnection(ctx context.Context, cc *CommandContext, conn core.ConnectionConfig) (res checkResult) {
	res = checkResult{Name: conn.Name, Kind: conn.DBType}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	if !conn.Usable() {
		res.Err = core.InvalidInputf("no stored secret")
		return res
	}

	c, err := client.Open(ctx, cc.Bridge, conn, cc.Logger)
	if err != nil {
		res.Err = err
		return res
	}
	defer c.Release()

	tables, err := c.Tables(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Tables = len(tables)
	cc.Logger.Debug("connection ok", slog.String("connection", conn.Name), slog.Int("tables", res.Tables))
	return res
}

func printCheckResults(w io.Writer, results []checkResult) int {
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Connection", "Type", "Status", "Tables", "Time", "Detail"})

	failed := 0
	for _, r := range results {
		status, detail, tables := ok("ok"), "", fmt.Sprint(r.Tables)
		if r.Err != nil {
			failed++
			status, detail, tables = bad("error"), r.Err.Error(), "-"
		}
		t.AppendRow(table.Row{r.Name, r.Kind, status, tables, r.Elapsed.Round(time.Millisecond), detail})
	}
	t.Render()
	return failed
}

// maskSecret hides the password in a connection string.
func maskSecret(cs string) string {
	if strings.Contains(cs, "://") {
		if u, err := url.Parse(cs); err == nil {
			return u.Redacted()
		}
	}
	// user:password@tcp(host)/db style
	at := strings.LastIndex(cs, "@")
	if at < 0 {
		return cs
	}
	colon := strings.Index(cs[:at], ":")
	if colon < 0 {
		return cs
	}
	return cs[:colon+1] + "xxxxx" + cs[at:]
}

// completeConnectionNames offers saved connection names.
func completeConnectionNames(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg := GetConfig(cmd.Context())
	conns, err := NewStore(cfg, slog.New(slog.DiscardHandler)).Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(conns))
	for _, c := range conns {
		names = append(names, c.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// adapterNames lists the registered backends for doctor output.
func adapterNames() []string {
	kinds := adapter.ListAdapters()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
