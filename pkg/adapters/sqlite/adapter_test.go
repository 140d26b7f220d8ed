package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/leapstack-labs/slickdata/internal/testutil"
	"github.com/leapstack-labs/slickdata/pkg/adapters/sqlite"
	"github.com/leapstack-labs/slickdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestAdapter(t *testing.T) *sqlite.Adapter {
	t.Helper()
	adp := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), ":memory:"))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func exec(t *testing.T, adp *sqlite.Adapter, query string) *core.QueryResult {
	t.Helper()
	res, err := adp.ExecuteQuery(context.Background(), query)
	require.NoError(t, err, query)
	return res
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		input    string
		dsn      string
		inMemory bool
	}{
		{"sqlite://data/app.db", "data/app.db", false},
		{"sqlite:///var/lib/app.db", "/var/lib/app.db", false},
		{"sqlite:app.db", "app.db", false},
		{"app.db", "app.db", false},
		{"  app.db  ", "app.db", false},
		{"sqlite://app.db?_pragma=foreign_keys(1)", "app.db?_pragma=foreign_keys(1)", false},
		{":memory:", ":memory:", true},
		{"sqlite::memory:", ":memory:", true},
		{"sqlite://:memory:", ":memory:", true},
		{":memory:?_pragma=foreign_keys(1)", ":memory:?_pragma=foreign_keys(1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dsn, inMemory := sqlite.ParseDSN(tt.input)
			assert.Equal(t, tt.dsn, dsn)
			assert.Equal(t, tt.inMemory, inMemory)
		})
	}
}

func TestAdapter_Connect(t *testing.T) {
	t.Run("file is created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "new.db")
		adp := sqlite.New(nil)
		require.NoError(t, adp.Connect(context.Background(), "sqlite://"+path))
		defer func() { _ = adp.Close() }()

		exec(t, adp, "CREATE TABLE t (id INTEGER)")
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "no", "such", "dir", "x.db")
		adp := sqlite.New(nil)
		err := adp.Connect(context.Background(), path)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrDatabaseConnection)
	})

	t.Run("empty path", func(t *testing.T) {
		err := sqlite.New(nil).Connect(context.Background(), "sqlite://")
		assert.ErrorIs(t, err, core.ErrDatabaseConnection)
	})

	t.Run("kind", func(t *testing.T) {
		assert.Equal(t, core.Sqlite, sqlite.New(nil).Kind())
	})
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := sqlite.New(nil)

	_, err := adp.GetTables(ctx)
	assert.ErrorIs(t, err, core.ErrTableFetch)

	_, err = adp.GetColumns(ctx, "t")
	assert.ErrorIs(t, err, core.ErrTableFetch)

	_, err = adp.ExecuteQuery(ctx, "SELECT 1")
	assert.ErrorIs(t, err, core.ErrQueryExecution)
}

func TestAdapter_GetTables(t *testing.T) {
	adp := setupTestAdapter(t)
	exec(t, adp, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")

	tables, err := adp.GetTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Table{{Name: "t", Schema: nil}}, tables)
}

func TestAdapter_GetTables_ExcludesInternal(t *testing.T) {
	adp := setupTestAdapter(t)
	exec(t, adp, "CREATE TABLE b (id INTEGER PRIMARY KEY AUTOINCREMENT)")
	exec(t, adp, "CREATE TABLE a (x TEXT)")
	exec(t, adp, "CREATE VIEW v AS SELECT x FROM a")

	tables, err := adp.GetTables(context.Background())
	require.NoError(t, err)

	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	// sqlite_sequence exists because of AUTOINCREMENT; views are not tables.
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestAdapter_GetTables_Empty(t *testing.T) {
	adp := setupTestAdapter(t)
	tables, err := adp.GetTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestAdapter_GetColumns(t *testing.T) {
	adp := setupTestAdapter(t)
	exec(t, adp, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")

	cols, err := adp.GetColumns(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "INTEGER", cols[0].DataType)
	assert.True(t, cols[0].IsPrimaryKey)

	assert.Equal(t, "name", cols[1].Name)
	assert.Equal(t, "TEXT", cols[1].DataType)
	assert.False(t, cols[1].IsPrimaryKey)
	assert.True(t, cols[1].IsNullable)
}

func TestAdapter_GetColumns_NotNull(t *testing.T) {
	adp := setupTestAdapter(t)
	exec(t, adp, "CREATE TABLE t (a TEXT NOT NULL, b REAL DEFAULT 1.5)")

	cols, err := adp.GetColumns(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.False(t, cols[0].IsNullable)
	assert.True(t, cols[1].IsNullable)
}

func TestAdapter_GetColumns_UnknownTable(t *testing.T) {
	adp := setupTestAdapter(t)
	cols, err := adp.GetColumns(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestAdapter_ExecuteQuery(t *testing.T) {
	adp := setupTestAdapter(t)
	exec(t, adp, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")
	exec(t, adp, "INSERT INTO t (id, name) VALUES (1, 'Alice')")
	exec(t, adp, "INSERT INTO t (id, name) VALUES (2, 'Bob')")

	res := exec(t, adp, "SELECT * FROM t ORDER BY id")
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Alice", res.Rows[0][1])
	assert.Equal(t, "Bob", res.Rows[1][1])
}

func TestAdapter_ExecuteQuery_Values(t *testing.T) {
	adp := setupTestAdapter(t)

	res := exec(t, adp, "SELECT 42, -7, 9223372036854775807, 2.5, 'text', NULL, '007', x'ff'")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"42", "-7", "9223372036854775807", "2.5", "text", "NULL", "007", "NULL"}, res.Rows[0])
}

func TestAdapter_ExecuteQuery_Int32RoundTrip(t *testing.T) {
	adp := setupTestAdapter(t)
	exec(t, adp, "CREATE TABLE n (v INTEGER)")
	exec(t, adp, "INSERT INTO n VALUES (0), (1), (-1), (2147483647), (-2147483648), (31337)")

	res := exec(t, adp, "SELECT v FROM n")
	require.Len(t, res.Rows, 6)
	for _, row := range res.Rows {
		require.Len(t, row, res.Width())
		_, err := strconv.Atoi(row[0])
		assert.NoError(t, err)
	}
}

func TestAdapter_ExecuteQuery_DDLAndDML(t *testing.T) {
	adp := setupTestAdapter(t)

	res := exec(t, adp, "CREATE TABLE t (id INTEGER)")
	assert.Equal(t, core.EmptyResult(), res)

	res = exec(t, adp, "INSERT INTO t VALUES (1)")
	assert.Equal(t, core.EmptyResult(), res)

	res = exec(t, adp, "SELECT id FROM t WHERE id > 100")
	assert.Equal(t, core.EmptyResult(), res, "zero-row results carry no column names")
}

func TestAdapter_ExecuteQuery_Error(t *testing.T) {
	adp := setupTestAdapter(t)

	_, err := adp.ExecuteQuery(context.Background(), "SELEC nonsense")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQueryExecution)
	assert.Contains(t, err.Error(), "Query execution failed: ")
}
