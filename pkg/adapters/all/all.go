// Package all registers every bundled backend with the adapter registry.
//
//	import _ "github.com/leapstack-labs/slickdata/pkg/adapters/all"
package all

import (
	_ "github.com/leapstack-labs/slickdata/pkg/adapters/duckdb"   // DuckDB
	_ "github.com/leapstack-labs/slickdata/pkg/adapters/mysql"    // MySQL / MariaDB
	_ "github.com/leapstack-labs/slickdata/pkg/adapters/postgres" // PostgreSQL
	_ "github.com/leapstack-labs/slickdata/pkg/adapters/sqlite"   // SQLite
)
