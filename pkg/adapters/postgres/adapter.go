// Package postgres provides the PostgreSQL backend for slickdata.
package postgres

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

const tablesQuery = `
	SELECT schemaname, tablename
	FROM pg_catalog.pg_tables
	WHERE schemaname NOT IN ('pg_catalog', 'information_schema')
	ORDER BY schemaname, tablename
`

// Primary keys are not resolved; the last column is always false.
const columnsQuery = `
	SELECT column_name, data_type, is_nullable = 'YES', false
	FROM information_schema.columns
	WHERE table_name = $1
	ORDER BY table_schema, ordinal_position
`

const qualifiedColumnsQuery = `
	SELECT column_name, data_type, is_nullable = 'YES', false
	FROM information_schema.columns
	WHERE table_name = $1 AND table_schema = $2
	ORDER BY ordinal_position
`

// Adapter implements adapter.Client for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Kind returns core.Postgres.
func (a *Adapter) Kind() core.DatabaseType {
	return core.Postgres
}

// Connect establishes a connection to PostgreSQL. Both postgres:// URLs and
// key=value DSNs are accepted.
func (a *Adapter) Connect(ctx context.Context, connectionString string) error {
	cfg, err := pgx.ParseConfig(connectionString)
	if err != nil {
		return core.ConnectionError(err)
	}

	a.Logger.Debug("connecting to postgres",
		slog.String("host", cfg.Host),
		slog.Int("port", int(cfg.Port)),
		slog.String("database", cfg.Database))

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return core.ConnectionError(err)
	}
	a.DB = db
	return nil
}

// GetTables lists tables outside pg_catalog and information_schema.
func (a *Adapter) GetTables(ctx context.Context) ([]core.Table, error) {
	return a.QueryTables(ctx, tablesQuery)
}

// GetColumns introspects a table by name. A schema-qualified name narrows
// the lookup to that schema; otherwise columns of every same-named table
// are returned.
func (a *Adapter) GetColumns(ctx context.Context, table string) ([]core.Column, error) {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return a.QueryColumns(ctx, qualifiedColumnsQuery, name, schema)
	}
	return a.QueryColumns(ctx, columnsQuery, table)
}

// Ensure Adapter implements adapter.Client interface
var _ adapter.Client = (*Adapter)(nil)
