// Package adapter provides the backend client contract for slickdata.
//
// This package contains the interface every database backend implements,
// the database/sql base shared by the SQL backends, value coercion, and the
// registry backends add themselves to. Concrete backends live in
// pkg/adapters/ subdirectories.
package adapter

import (
	"context"

	"github.com/leapstack-labs/slickdata/pkg/core"
)

// Client defines the operations every backend implements.
//
// All methods are blocking calls against the native driver. They are meant
// to run on the execution bridge, never on a UI loop.
type Client interface {
	// Connect opens the connection pool for the given URL or file path.
	Connect(ctx context.Context, connectionString string) error

	// Close closes the connection pool and releases resources.
	Close() error

	// GetTables lists user-visible relations, excluding system schemas.
	GetTables(ctx context.Context) ([]core.Table, error)

	// GetColumns introspects the columns of one table.
	GetColumns(ctx context.Context, table string) ([]core.Column, error)

	// ExecuteQuery runs caller-supplied SQL verbatim. SELECT, DML and DDL
	// are all accepted.
	ExecuteQuery(ctx context.Context, query string) (*core.QueryResult, error)

	// Kind returns the database type this client talks to.
	Kind() core.DatabaseType
}
