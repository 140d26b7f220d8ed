package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/slickdata/internal/config"
	"github.com/leapstack-labs/slickdata/internal/logging"
	"github.com/leapstack-labs/slickdata/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "browse [connection]",
		Aliases: []string{"ui", "tui"},
		Short:   "Open the interactive terminal browser",
		Long: `Open a full-screen browser for saved connections.

Pick a connection, preview tables, run SQL and sort result columns.
Naming a connection opens it straight away.
Logs go to slickdata.log in the config directory while the browser runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBrowse,
	}
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("browse needs an interactive terminal; use 'slickdata query' instead")
	}

	cfg := GetConfig(cmd.Context())
	w, err := logging.FileWriter(cfg.LogFile())
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	logger, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	cmd.SetContext(config.WithLogger(cmd.Context(), logger))

	cc, cleanup := NewCommandContext(cmd)
	defer cleanup()

	var connect string
	if len(args) == 1 {
		connect = args[0]
	}

	ctx := cmd.Context()
	h := cc.OpenHistory(ctx)
	defer closeHistory(h)

	return tui.Run(ctx, tui.Options{
		Bridge:       cc.Bridge,
		Store:        cc.Store,
		History:      h,
		Logger:       logger,
		PreviewLimit: cfg.PreviewLimit,
		Connect:      connect,
	})
}
