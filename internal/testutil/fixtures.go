package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/slickdata/pkg/adapter"
	"github.com/leapstack-labs/slickdata/pkg/adapters/sqlite"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

// PeopleDDL creates the two-row fixture table used across packages.
var PeopleDDL = []string{
	"CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)",
	"INSERT INTO people (id, name, age) VALUES (1, 'Alice', 30)",
	"INSERT INTO people (id, name, age) VALUES (2, 'Bob', 25)",
	"INSERT INTO people (id, name, age) VALUES (3, 'Carol', 41)",
}

// NewSQLiteFile creates a SQLite database file seeded with stmts and
// returns a connection config pointing at it.
func NewSQLiteFile(t testing.TB, name string, stmts ...string) core.ConnectionConfig {
	t.Helper()

	path := filepath.Join(t.TempDir(), name+".db")
	cfg := core.ConnectionConfig{
		Name:             name,
		DBType:           core.Sqlite,
		ConnectionString: "sqlite://" + path,
	}

	adp := sqlite.New(nil)
	if err := adp.Connect(context.Background(), cfg.ConnectionString); err != nil {
		t.Fatalf("connect fixture %s: %v", path, err)
	}
	defer func() { _ = adp.Close() }()
	Seed(t, adp, stmts...)
	return cfg
}

// Seed runs each statement against c, failing the test on error.
func Seed(t testing.TB, c adapter.Client, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := c.ExecuteQuery(context.Background(), stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
}
