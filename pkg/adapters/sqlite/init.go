package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

func init() {
	adapter.Register(core.Sqlite, func(logger *slog.Logger) adapter.Client { return New(logger) })
}
