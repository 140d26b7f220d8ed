package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

// Recorder runs statements through an executor and records each one.
type Recorder struct {
	exec       client.Executor
	store      *Store
	connection string
	logger     *slog.Logger
}

// NewRecorder wraps exec. A nil store disables recording.
func NewRecorder(exec client.Executor, store *Store, connection string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{exec: exec, store: store, connection: connection, logger: logger}
}

// Execute runs query and records the outcome. Recording failures are
// logged and never change the result.
func (r *Recorder) Execute(ctx context.Context, query string) (*core.QueryResult, error) {
	start := time.Now()
	res, err := r.exec.Execute(ctx, query)
	if r.store == nil {
		return res, err
	}

	entry := Entry{
		Connection: r.connection,
		SQL:        query,
		Duration:   time.Since(start),
		ExecutedAt: start,
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.RowCount = res.Len()
	}
	if _, herr := r.store.Record(ctx, entry); herr != nil {
		r.logger.Warn("failed to record history",
			slog.String("connection", r.connection),
			slog.String("error", herr.Error()))
	}
	return res, err
}
