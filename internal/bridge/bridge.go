// Package bridge runs blocking database work off the caller's goroutine.
//
// A Bridge is a process-lifetime execution context. Units submitted to it
// run on bridge goroutines with the bridge's own context, so a caller that
// gives up waiting never cancels a driver call that is already running.
// A weighted semaphore bounds how many units run at once.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned for work submitted after Shutdown.
var ErrClosed = errors.New("execution bridge is shut down")

// PanicError reports a unit that panicked instead of returning.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("background task panicked: %v", e.Value)
}

// Stats is a point-in-time view of the bridge counters.
type Stats struct {
	Workers   int
	Submitted uint64
	Completed uint64
	Running   int64
}

// Pending returns the number of submitted units that have not finished.
func (s Stats) Pending() uint64 {
	return s.Submitted - s.Completed
}

// Bridge executes units of blocking work on background goroutines.
type Bridge struct {
	ctx     context.Context
	sem     *semaphore.Weighted
	workers int
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	submitted atomic.Uint64
	completed atomic.Uint64
	running   atomic.Int64
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithWorkers bounds the number of units running concurrently.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the logger used for panics and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Bridge. The default worker bound is twice the CPU count.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		ctx:     context.Background(),
		workers: runtime.NumCPU() * 2,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.sem = semaphore.NewWeighted(int64(b.workers))
	return b
}

// Workers returns the concurrency bound.
func (b *Bridge) Workers() int {
	return b.workers
}

// Stats returns the current counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Workers:   b.workers,
		Submitted: b.submitted.Load(),
		Completed: b.completed.Load(),
		Running:   b.running.Load(),
	}
}

// submit schedules fn. It never blocks on the worker bound.
func (b *Bridge) submit(fn func(context.Context)) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	b.wg.Add(1)
	b.submitted.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.completed.Add(1)

		// The bridge context is never cancelled, so Acquire only returns
		// once a slot is free.
		_ = b.sem.Acquire(b.ctx, 1)
		defer b.sem.Release(1)

		b.running.Add(1)
		defer b.running.Add(-1)
		fn(b.ctx)
	}()
	return nil
}

// Shutdown stops accepting work and waits for submitted units to finish
// or for ctx to end, whichever comes first.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Debug("execution bridge drained", slog.Uint64("completed", b.completed.Load()))
		return nil
	case <-ctx.Done():
		b.logger.Warn("execution bridge shutdown with work pending",
			slog.Uint64("pending", b.Stats().Pending()))
		return ctx.Err()
	}
}

// Future is the pending outcome of a unit started with Start.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done is closed once the unit has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait suspends until the unit finishes or ctx ends. Ending ctx only stops
// the wait; the unit itself keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Start submits fn and returns without waiting. A nil error means fn will
// run to completion.
func Start[T any](b *Bridge, fn func(context.Context) (T, error)) (*Future[T], error) {
	f := &Future[T]{done: make(chan struct{})}
	err := b.submit(func(bctx context.Context) {
		defer close(f.done)
		f.val, f.err = protect(bctx, b.logger, fn)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Await runs fn on the bridge and suspends the caller until it completes.
//
// If ctx ends first, Await returns ctx.Err() immediately while fn keeps
// running to completion on the bridge; its result is discarded. A ctx that
// is already done submits nothing.
func Await[T any](ctx context.Context, b *Bridge, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f, err := Start(b, fn)
	if err != nil {
		return zero, err
	}
	return f.Wait(ctx)
}

// Block runs fn on the bridge and blocks the current goroutine until it
// completes. It is meant for construction paths that have no caller
// context.
func Block[T any](b *Bridge, fn func(context.Context) (T, error)) (T, error) {
	return Await(context.Background(), b, fn)
}

// Go runs fn on the bridge without waiting for it.
func Go(b *Bridge, fn func(context.Context)) error {
	return b.submit(func(bctx context.Context) {
		_, _ = protect(bctx, b.logger, func(c context.Context) (struct{}, error) {
			fn(c)
			return struct{}{}, nil
		})
	})
}

func protect[T any](ctx context.Context, logger *slog.Logger, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Value: r, Stack: debug.Stack()}
			logger.Error("recovered panic in background task",
				slog.Any("panic", r),
				slog.String("stack", string(pe.Stack)))
			var zero T
			v, err = zero, pe
		}
	}()
	return fn(ctx)
}
