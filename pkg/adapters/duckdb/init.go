// Package duckdb provides the embedded DuckDB backend for slickdata.
//
// This file registers the DuckDB backend with the adapter registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/slickdata/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

func init() {
	adapter.Register(core.DuckDB, func(logger *slog.Logger) adapter.Client { return New(logger) })
}
