package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_QualifiedName(t *testing.T) {
	tests := []struct {
		name     string
		table    Table
		expected string
	}{
		{"no schema", NewTable("users", ""), "users"},
		{"with schema", NewTable("users", "public"), "public.users"},
		{"empty schema pointer", Table{Name: "t", Schema: new(string)}, "t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.table.QualifiedName())
		})
	}
}

func TestNewTable_NoSchemaIsNil(t *testing.T) {
	tbl := NewTable("t", "")
	assert.Nil(t, tbl.Schema)
	assert.Equal(t, "", tbl.SchemaName())
}

func TestEmptyResult_JSON(t *testing.T) {
	data, err := json.Marshal(EmptyResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[],"rows":[]}`, string(data))
}

func TestQueryResult_Clone(t *testing.T) {
	orig := &QueryResult{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "Alice"}, {"2", "Bob"}},
	}

	clone := orig.Clone()
	clone.Rows[0][1] = "Mallory"
	clone.Columns[0] = "pk"

	assert.Equal(t, "Alice", orig.Rows[0][1], "clone must not share row storage")
	assert.Equal(t, "id", orig.Columns[0], "clone must not share column storage")
	assert.Nil(t, (*QueryResult)(nil).Clone())
}

func TestQueryResult_Accessors(t *testing.T) {
	r := &QueryResult{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "Alice"}},
	}

	assert.Equal(t, 2, r.Width())
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.IsEmpty())
	assert.Equal(t, 1, r.ColumnIndex("name"))
	assert.Equal(t, -1, r.ColumnIndex("missing"))

	var nilResult *QueryResult
	assert.Equal(t, 0, nilResult.Width())
	assert.True(t, nilResult.IsEmpty())
}

func TestParseDatabaseType(t *testing.T) {
	tests := []struct {
		input    string
		expected DatabaseType
		wantErr  bool
	}{
		{"sqlite", Sqlite, false},
		{"SQLite3", Sqlite, false},
		{"postgres", Postgres, false},
		{"PostgreSQL", Postgres, false},
		{"pg", Postgres, false},
		{"duckdb", DuckDB, false},
		{"mariadb", MySQL, false},
		{"oracle", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDatabaseType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDatabaseType_IsEmbedded(t *testing.T) {
	assert.True(t, Sqlite.IsEmbedded())
	assert.True(t, DuckDB.IsEmbedded())
	assert.False(t, Postgres.IsEmbedded())
	assert.False(t, MySQL.IsEmbedded())
}

func TestConnectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ConnectionConfig
		errSubstr string
	}{
		{"valid", ConnectionConfig{Name: "local", DBType: Sqlite, ConnectionString: "sqlite://db.sqlite"}, ""},
		{"missing name", ConnectionConfig{DBType: Sqlite, ConnectionString: ":memory:"}, "connection name is required"},
		{"bad type", ConnectionConfig{Name: "x", DBType: "Oracle", ConnectionString: "x"}, "unknown database type"},
		{"missing url", ConnectionConfig{Name: "x", DBType: Postgres}, "connection string is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		})
	}
}

func TestConnectionMetadata_JSONShape(t *testing.T) {
	secret := "postgres://u:p@localhost/db"
	data, err := json.Marshal([]ConnectionMetadata{
		{Name: "prod", DBType: Postgres, UnsafePassword: &secret},
		{Name: "gone", DBType: Sqlite},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"name":"prod","db_type":"Postgres","unsafe_password":"postgres://u:p@localhost/db"},
		{"name":"gone","db_type":"Sqlite","unsafe_password":null}
	]`, string(data))
}
