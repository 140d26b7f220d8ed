package mysql

import (
	"log/slog"

	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

func init() {
	adapter.Register(core.MySQL, func(logger *slog.Logger) adapter.Client { return New(logger) })
}
