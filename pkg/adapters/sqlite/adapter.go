// Package sqlite provides the embedded SQLite backend for slickdata.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver (pure Go)
)

const driverName = "sqlite"

const tablesQuery = `SELECT NULL, name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`

// Adapter implements adapter.Client for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(logger)}
}

// Kind returns core.Sqlite.
func (a *Adapter) Kind() core.DatabaseType {
	return core.Sqlite
}

// Connect opens the database file named by connectionString, creating it
// when missing. See ParseDSN for the accepted forms.
func (a *Adapter) Connect(ctx context.Context, connectionString string) error {
	dsn, inMemory := ParseDSN(connectionString)
	if dsn == "" {
		return core.Errorf(core.KindDatabaseConnection, "empty sqlite path")
	}

	a.Logger.Debug("connecting to sqlite", slog.Bool("in_memory", inMemory))

	if err := a.OpenPool(ctx, driverName, dsn); err != nil {
		return err
	}
	if inMemory {
		// Each connection to :memory: is its own database.
		a.DB.SetMaxOpenConns(1)
	}
	return nil
}

// ParseDSN converts a connection string into a driver DSN.
// Accepted forms are sqlite://<path>, sqlite:<path>, a bare path and the
// in-memory markers :memory:, sqlite::memory: and sqlite://:memory:.
// Options after '?' are kept for the driver.
func ParseDSN(connectionString string) (dsn string, inMemory bool) {
	s := strings.TrimSpace(connectionString)
	switch {
	case strings.HasPrefix(s, "sqlite://"):
		s = strings.TrimPrefix(s, "sqlite://")
	case strings.HasPrefix(s, "sqlite:"):
		s = strings.TrimPrefix(s, "sqlite:")
	}

	path := s
	if i := strings.IndexByte(s, '?'); i >= 0 {
		path = s[:i]
	}
	return s, path == ":memory:"
}

// GetTables lists user tables. SQLite has no schemas, so Schema is nil.
func (a *Adapter) GetTables(ctx context.Context) ([]core.Table, error) {
	return a.QueryTables(ctx, tablesQuery)
}

// GetColumns introspects a table with PRAGMA table_info.
// The table name is interpolated as given.
func (a *Adapter) GetColumns(ctx context.Context, table string) ([]core.Column, error) {
	if a.DB == nil {
		return nil, adapter.NotConnected(core.KindTableFetch)
	}

	query := fmt.Sprintf("PRAGMA table_info(%s)", table) //nolint:gosec // table names come from GetTables
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, core.TableFetchError(err)
	}
	defer func() { _ = rows.Close() }()

	columns := []core.Column{}
	for rows.Next() {
		var (
			cid      int64
			col      core.Column
			notNull  int64
			defValue any
			pk       int64
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &defValue, &pk); err != nil {
			return nil, core.TableFetchError(err)
		}
		col.IsNullable = notNull == 0
		col.IsPrimaryKey = pk >= 1
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, core.TableFetchError(err)
	}
	return columns, nil
}

// Ensure Adapter implements adapter.Client interface
var _ adapter.Client = (*Adapter)(nil)
