// Package postgres provides the PostgreSQL backend for slickdata.
//
// This file registers the PostgreSQL backend with the adapter registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/slickdata/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

func init() {
	adapter.Register(core.Postgres, func(logger *slog.Logger) adapter.Client { return New(logger) })
}
