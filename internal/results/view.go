// Package results holds the current query result and implements the
// column-sort contract.
//
// When the result came from a query the view can re-run, sorting rewrites
// that query's ORDER BY and executes it again through the client. Without
// a backing query the rows are sorted locally. Every change advances a
// generation counter that UI loops watch to know when to redraw.
package results

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/notifier"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

// SortState is the active sort. Column is empty when unsorted.
type SortState struct {
	Column    string
	Direction Direction
}

// View is the result currently on screen.
type View struct {
	exec     client.Executor
	notifier *notifier.Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	query  string
	result *core.QueryResult
	sort   SortState

	generation atomic.Uint64
}

// Option configures a View.
type Option func(*View)

// WithExecutor enables query-rewrite sorting through exec.
func WithExecutor(exec client.Executor) Option {
	return func(v *View) { v.exec = exec }
}

// WithNotifier pings n with the new generation on every change.
func WithNotifier(n *notifier.Notifier) Option {
	return func(v *View) { v.notifier = n }
}

// WithLogger sets the view's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewView creates an empty view. Without WithExecutor it sorts locally.
func NewView(opts ...Option) *View {
	v := &View{
		result: core.EmptyResult(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetExecutor swaps the executor, e.g. after switching connections.
// A nil executor switches the view to local sorting.
func (v *View) SetExecutor(exec client.Executor) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exec = exec
}

// advance bumps the generation. Callers hold v.mu and call notify after
// unlocking.
func (v *View) advance() uint64 {
	return v.generation.Add(1)
}

func (v *View) notify(gen uint64) {
	if v.notifier != nil {
		v.notifier.Broadcast(gen)
	}
}

// Run executes query and installs its result. On failure the previous
// result stays and the error is returned.
func (v *View) Run(ctx context.Context, query string) error {
	v.mu.Lock()
	exec := v.exec
	v.mu.Unlock()

	if exec == nil {
		return core.Errorf(core.KindQueryExecution, "no active connection")
	}

	res, err := exec.Execute(ctx, query)
	if err != nil {
		return core.QueryError(err)
	}
	v.SetResult(query, res)
	return nil
}

// SetResult installs a result produced elsewhere, with fresh execution
// semantics: the query is stored and the sort is cleared. An empty query
// leaves the view in local sort mode.
func (v *View) SetResult(query string, res *core.QueryResult) {
	if res == nil {
		res = core.EmptyResult()
	}

	v.mu.Lock()
	v.query = query
	v.result = res
	v.sort = SortState{}
	gen := v.advance()
	v.mu.Unlock()

	v.notify(gen)
}

// Sort applies a sort on column.
//
// With an executor and a stored query the query is rewritten and executed
// again; on failure nothing changes and the error is returned. Otherwise
// the rows are sorted locally by cell text.
func (v *View) Sort(ctx context.Context, column string, dir Direction) error {
	v.mu.Lock()
	exec := v.exec
	query := v.query
	current := v.sort
	known := v.result.ColumnIndex(column) >= 0
	v.mu.Unlock()

	if !known {
		return core.InvalidInputf("unknown column %q", column)
	}
	dir = resolve(current, column, dir)

	if exec == nil || query == "" {
		v.sortLocal(column, dir)
		return nil
	}

	rewritten := StripOrderBy(query)
	if dir != Default {
		rewritten = RewriteOrderBy(query, column, dir)
	}

	v.logger.Debug("re-running query for sort",
		slog.String("column", column),
		slog.String("direction", dir.String()))

	// No lock is held across the submission.
	res, err := exec.Execute(ctx, rewritten)
	if err != nil {
		return core.QueryError(err)
	}

	v.mu.Lock()
	v.result = res
	v.query = rewritten
	v.sort = SortState{Column: column, Direction: dir}
	if dir == Default {
		v.sort = SortState{}
	}
	gen := v.advance()
	v.mu.Unlock()

	v.notify(gen)
	return nil
}

// resolve turns Unspecified into a concrete direction.
func resolve(current SortState, column string, dir Direction) Direction {
	if dir != Unspecified {
		return dir
	}
	if current.Column == column && current.Direction == Ascending {
		return Descending
	}
	return Ascending
}

// sortLocal sorts rows by lexicographic comparison of the column's text.
// Default leaves the rows as they are.
func (v *View) sortLocal(column string, dir Direction) {
	v.mu.Lock()
	if dir == Default {
		v.sort = SortState{}
		gen := v.advance()
		v.mu.Unlock()
		v.notify(gen)
		return
	}

	res := v.result.Clone()
	idx := res.ColumnIndex(column)
	sort.SliceStable(res.Rows, func(i, j int) bool {
		if dir == Descending {
			return res.Rows[i][idx] > res.Rows[j][idx]
		}
		return res.Rows[i][idx] < res.Rows[j][idx]
	})
	v.result = res
	v.sort = SortState{Column: column, Direction: dir}
	gen := v.advance()
	v.mu.Unlock()

	v.notify(gen)
}

// Snapshot returns a copy of the current result and its generation.
func (v *View) Snapshot() (*core.QueryResult, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result.Clone(), v.generation.Load()
}

// Generation returns the current generation.
func (v *View) Generation() uint64 {
	return v.generation.Load()
}

// Query returns the stored query, including any sort rewrite.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// SortState returns the active sort.
func (v *View) SortState() SortState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort
}
