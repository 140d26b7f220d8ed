package adapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/leapstack-labs/slickdata/pkg/core"
)

// errNotConnected is wrapped into the kind of the failing call.
var errNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for backends.
// Embed this struct in concrete backends to get standard Close and
// ExecuteQuery implementations plus the introspection scanning helpers.
//
// DB is a pool: it is shared by every concurrent submission and relies on
// database/sql's own synchronization.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// NewBase returns a base with a usable logger (nil uses a discard logger).
func NewBase(logger *slog.Logger) BaseSQLAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseSQLAdapter{Logger: logger}
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Close closes the connection pool.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		b.logger().Debug("closing database connection")
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the connection pool is open.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// OpenPool opens and pings a pool. Failures are DatabaseConnection errors.
func (b *BaseSQLAdapter) OpenPool(ctx context.Context, driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return core.ConnectionError(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return core.ConnectionError(err)
	}
	b.DB = db
	return nil
}

// ExecuteQuery runs query verbatim and renders every cell as text.
//
// A statement that yields no rows produces an empty result with no
// columns, even when it had a projection.
func (b *BaseSQLAdapter) ExecuteQuery(ctx context.Context, query string) (*core.QueryResult, error) {
	if b.DB == nil {
		return nil, core.QueryError(errNotConnected)
	}

	start := time.Now()
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, core.QueryError(err)
	}
	defer func() { _ = rows.Close() }()

	result, err := ScanResult(rows)
	if err != nil {
		return nil, core.QueryError(err)
	}

	b.logger().Debug("query executed",
		slog.Int("rows", result.Len()),
		slog.Int("columns", result.Width()),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// ScanResult drains rows into a QueryResult using FormatValue for each cell.
func ScanResult(rows *sql.Rows) (*core.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var data [][]string
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return core.EmptyResult(), nil
	}
	return &core.QueryResult{Columns: cols, Rows: data}, nil
}

// QueryTables runs an introspection query returning (schema, name) rows.
// A NULL schema yields a table without schema.
func (b *BaseSQLAdapter) QueryTables(ctx context.Context, query string, args ...any) ([]core.Table, error) {
	if b.DB == nil {
		return nil, core.TableFetchError(errNotConnected)
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.TableFetchError(err)
	}
	defer func() { _ = rows.Close() }()

	tables := []core.Table{}
	for rows.Next() {
		var schema sql.NullString
		var name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, core.TableFetchError(err)
		}
		tables = append(tables, core.NewTable(name, schema.String))
	}
	if err := rows.Err(); err != nil {
		return nil, core.TableFetchError(err)
	}
	return tables, nil
}

// QueryColumns runs an introspection query returning
// (name, data_type, is_nullable, is_primary_key) rows.
func (b *BaseSQLAdapter) QueryColumns(ctx context.Context, query string, args ...any) ([]core.Column, error) {
	if b.DB == nil {
		return nil, core.TableFetchError(errNotConnected)
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.TableFetchError(err)
	}
	defer func() { _ = rows.Close() }()

	columns := []core.Column{}
	for rows.Next() {
		var col core.Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &col.IsPrimaryKey); err != nil {
			return nil, core.TableFetchError(err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, core.TableFetchError(err)
	}
	return columns, nil
}

// NotConnected returns the "no pool" error classified as kind.
func NotConnected(kind core.ErrorKind) error {
	return core.Wrap(kind, errNotConnected)
}
