package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/slickdata/internal/bridge"
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/config"
	"github.com/leapstack-labs/slickdata/internal/credstore"
	"github.com/leapstack-labs/slickdata/internal/history"
	"github.com/leapstack-labs/slickdata/pkg/core"
	"github.com/spf13/cobra"
)

// configKey is used to store config in context.
type configKey struct{}

// WithConfig stores cfg in ctx for the commands to pick up.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context, falling back to
// the built-in defaults.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg, err := config.Default()
	if err != nil {
		return &config.Config{
			LogLevel:  config.DefaultLogLevel,
			LogFormat: config.DefaultLogFormat,
			Output:    config.DefaultOutput,
		}
	}
	return cfg
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Bridge *bridge.Bridge
	Store  *credstore.Store
}

// NewCommandContext creates a CommandContext with its own bridge.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func()) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := GetConfig(ctx)
	logger := config.GetLogger(ctx)

	br := bridge.New(bridge.WithWorkers(cfg.Workers), bridge.WithLogger(logger))
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := br.Shutdown(shutdownCtx); err != nil {
			logger.Warn("bridge shutdown", slog.String("error", err.Error()))
		}
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Bridge: br,
		Store:  NewStore(cfg, logger),
	}, cleanup
}

// NewStore builds the credential store the config asks for.
func NewStore(cfg *config.Config, logger *slog.Logger) *credstore.Store {
	var secrets credstore.SecretStore = credstore.KeyringStore{}
	if !cfg.SecureStorage {
		secrets = credstore.UnavailableStore{}
	}
	return credstore.New(cfg.ConnectionsFile,
		credstore.WithSecretStore(secrets),
		credstore.WithLogger(logger))
}

// Connection loads the saved connection called name.
func (c *CommandContext) Connection(name string) (core.ConnectionConfig, error) {
	conns, err := c.Store.Load()
	if err != nil {
		return core.ConnectionConfig{}, err
	}
	idx := credstore.Find(conns, name)
	if idx < 0 {
		return core.ConnectionConfig{}, core.InvalidInputf("no connection named %q (see 'slickdata connections list')", name)
	}
	conn := conns[idx]
	if !conn.Usable() {
		return core.ConnectionConfig{}, core.InvalidInputf("connection %q has no stored secret; remove and add it again", name)
	}
	return conn, nil
}

// Open connects to the saved connection called name. Callers Release the
// client when done.
func (c *CommandContext) Open(ctx context.Context, name string) (*client.Client, error) {
	conn, err := c.Connection(name)
	if err != nil {
		return nil, err
	}
	return client.Open(ctx, c.Bridge, conn, c.Logger)
}

// OpenHistory opens the history store. It returns nil when history is
// disabled or cannot be opened; history is never required.
func (c *CommandContext) OpenHistory(ctx context.Context) *history.Store {
	if !c.Cfg.History {
		return nil
	}
	h, err := history.Open(ctx, c.Cfg.HistoryFile, c.Logger)
	if err != nil {
		c.Logger.Warn("history unavailable", slog.String("error", err.Error()))
		return nil
	}
	return h
}

func closeHistory(h *history.Store) {
	if h != nil {
		_ = h.Close()
	}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
