// Package client is the asynchronous facade over a backend adapter.
//
// Every call submits one unit to the execution bridge and awaits it, so the
// caller (a UI loop, the REPL, a CLI command) never runs a driver call on
// its own goroutine. A Client is reference counted: the pool is closed on
// the bridge once the last holder, including any in-flight unit, releases
// it.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/slickdata/internal/bridge"
	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

// ErrClosed is the cause carried by calls made after the final Release.
var ErrClosed = errors.New("connection closed")

// Executor runs a statement and returns its rendered result.
type Executor interface {
	Execute(ctx context.Context, query string) (*core.QueryResult, error)
}

// Client is a connected, shareable handle to one database.
type Client struct {
	cfg     core.ConnectionConfig
	backend adapter.Client
	bridge  *bridge.Bridge
	logger  *slog.Logger

	mu   sync.Mutex
	refs int
}

// Open creates the backend for cfg and connects it on the bridge.
// The returned Client holds one reference.
//
// If ctx ends while the connect is still running, Open returns ctx.Err()
// and the pool is closed as soon as the connect finishes.
func Open(ctx context.Context, br *bridge.Bridge, cfg core.ConnectionConfig, logger *slog.Logger) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	f, err := bridge.Start(br, func(bctx context.Context) (struct{}, error) {
		return struct{}{}, backend.Connect(bctx, cfg.ConnectionString)
	})
	if err != nil {
		return nil, core.ConnectionError(err)
	}

	if _, err := f.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			go func() {
				<-f.Done()
				_ = backend.Close()
			}()
			return nil, ctx.Err()
		}
		return nil, core.ConnectionError(err)
	}
	return wrap(cfg, backend, br, logger), nil
}

// OpenBlocking is Open for construction paths without a caller context.
func OpenBlocking(br *bridge.Bridge, cfg core.ConnectionConfig, logger *slog.Logger) (*Client, error) {
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	_, err = bridge.Block(br, func(bctx context.Context) (struct{}, error) {
		return struct{}{}, backend.Connect(bctx, cfg.ConnectionString)
	})
	if err != nil {
		return nil, core.ConnectionError(err)
	}
	return wrap(cfg, backend, br, logger), nil
}

// New wraps an already connected backend. The returned Client holds one
// reference and owns the backend from now on.
func New(br *bridge.Bridge, cfg core.ConnectionConfig, backend adapter.Client, logger *slog.Logger) *Client {
	return wrap(cfg, backend, br, logger)
}

func newBackend(cfg core.ConnectionConfig, logger *slog.Logger) (adapter.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := adapter.NewClient(cfg.DBType, logger)
	if err != nil {
		return nil, core.ConnectionError(err)
	}
	return backend, nil
}

func wrap(cfg core.ConnectionConfig, backend adapter.Client, br *bridge.Bridge, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("connection opened",
		slog.String("connection", cfg.Name),
		slog.String("db_type", cfg.DBType.String()))
	return &Client{
		cfg:     cfg,
		backend: backend,
		bridge:  br,
		logger:  logger,
		refs:    1,
	}
}

// Name returns the connection name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Kind returns the backend's database type.
func (c *Client) Kind() core.DatabaseType {
	return c.backend.Kind()
}

// Config returns the configuration the client was opened with.
func (c *Client) Config() core.ConnectionConfig {
	return c.cfg
}

// Tables lists the database's tables.
func (c *Client) Tables(ctx context.Context) ([]core.Table, error) {
	return submit(ctx, c, core.KindTableFetch, func(bctx context.Context) ([]core.Table, error) {
		return c.backend.GetTables(bctx)
	})
}

// Columns introspects one table.
func (c *Client) Columns(ctx context.Context, table string) ([]core.Column, error) {
	return submit(ctx, c, core.KindTableFetch, func(bctx context.Context) ([]core.Column, error) {
		return c.backend.GetColumns(bctx, table)
	})
}

// Execute runs query verbatim.
func (c *Client) Execute(ctx context.Context, query string) (*core.QueryResult, error) {
	return submit(ctx, c, core.KindQueryExecution, func(bctx context.Context) (*core.QueryResult, error) {
		return c.backend.ExecuteQuery(bctx, query)
	})
}

// submit runs fn on the bridge while holding a reference. Panics surface
// classified as kind.
func submit[T any](ctx context.Context, c *Client, kind core.ErrorKind, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if !c.acquire() {
		return zero, core.ConnectionError(ErrClosed)
	}

	// The unit drops the reference itself so the pool outlives a caller
	// that stops waiting.
	f, err := bridge.Start(c.bridge, func(bctx context.Context) (T, error) {
		defer c.Release()
		return fn(bctx)
	})
	if err != nil {
		c.Release()
		return zero, err
	}

	v, err := f.Wait(ctx)
	if err != nil {
		var pe *bridge.PanicError
		if errors.As(err, &pe) {
			return zero, core.Wrap(kind, err)
		}
		return zero, err
	}
	return v, nil
}

// Retain adds a reference. It reports false when the client is already
// closed.
func (c *Client) Retain() bool {
	return c.acquire()
}

func (c *Client) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs <= 0 {
		return false
	}
	c.refs++
	return true
}

// Release drops a reference. At zero the pool is closed on the bridge.
// Extra releases are ignored.
func (c *Client) Release() {
	c.mu.Lock()
	if c.refs <= 0 {
		c.mu.Unlock()
		return
	}
	c.refs--
	last := c.refs == 0
	c.mu.Unlock()

	if !last {
		return
	}

	err := bridge.Go(c.bridge, func(context.Context) {
		c.closeBackend()
	})
	if err != nil {
		// The bridge is gone; close inline rather than leak the pool.
		c.closeBackend()
	}
}

func (c *Client) closeBackend() {
	if err := c.backend.Close(); err != nil {
		c.logger.Warn("failed to close connection",
			slog.String("connection", c.cfg.Name),
			slog.Any("error", err))
		return
	}
	c.logger.Debug("connection closed", slog.String("connection", c.cfg.Name))
}

// Refs returns the current reference count.
func (c *Client) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

// Closed reports whether the final reference has been released.
func (c *Client) Closed() bool {
	return c.Refs() == 0
}
