// Package duckdb provides the embedded DuckDB backend for slickdata.
package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

const tablesQuery = `
	SELECT table_schema, table_name
	FROM information_schema.tables
	WHERE table_type = 'BASE TABLE'
	  AND table_catalog = current_database()
	  AND table_schema NOT IN ('information_schema', 'pg_catalog')
	ORDER BY table_schema, table_name
`

const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES',
		EXISTS (
			SELECT 1 FROM duckdb_constraints() k
			WHERE k.constraint_type = 'PRIMARY KEY'
			  AND k.schema_name = c.table_schema
			  AND k.table_name = c.table_name
			  AND list_contains(k.constraint_column_names, c.column_name)
		)
	FROM information_schema.columns c
	WHERE c.table_catalog = current_database()
	  AND c.table_schema = ? AND c.table_name = ?
	ORDER BY c.ordinal_position
`

// Adapter implements adapter.Client for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	Params *Params
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Kind returns core.DuckDB.
func (a *Adapter) Kind() core.DatabaseType {
	return core.DuckDB
}

// Connect opens a DuckDB database. An empty path or ":memory:" opens an
// in-memory database.
func (a *Adapter) Connect(ctx context.Context, connectionString string) error {
	dsn, params, err := ParseDSN(connectionString)
	if err != nil {
		return core.ConnectionError(err)
	}

	a.Logger.Debug("connecting to duckdb",
		slog.Bool("in_memory", dsn == "" || strings.HasPrefix(dsn, "?")),
		slog.Int("extensions", len(params.Extensions)))

	if err := a.OpenPool(ctx, "duckdb", dsn); err != nil {
		return err
	}
	a.Params = params

	if err := a.loadExtensions(ctx); err != nil {
		_ = a.Close()
		a.DB = nil
		return core.ConnectionError(err)
	}
	return nil
}

func (a *Adapter) loadExtensions(ctx context.Context) error {
	for _, ext := range a.Params.Extensions {
		for _, stmt := range []string{"INSTALL " + ext, "LOAD " + ext} {
			if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to load extension %s: %w", ext, err)
			}
		}
		a.Logger.Debug("loaded duckdb extension", slog.String("extension", ext))
	}
	return nil
}

// GetTables lists base tables outside the system schemas.
func (a *Adapter) GetTables(ctx context.Context) ([]core.Table, error) {
	return a.QueryTables(ctx, tablesQuery)
}

// GetColumns introspects a table. The name may be schema-qualified;
// unqualified names resolve in the main schema.
func (a *Adapter) GetColumns(ctx context.Context, table string) ([]core.Column, error) {
	schema := "main"
	tableName := table
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		schema = parts[0]
		tableName = parts[1]
	}
	return a.QueryColumns(ctx, columnsQuery, schema, tableName)
}

// Ensure Adapter implements adapter.Client interface
var _ adapter.Client = (*Adapter)(nil)
