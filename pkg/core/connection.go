package core

import (
	"fmt"
	"strings"
)

// DatabaseType tags the backend family a connection talks to.
// The string values are the persisted db_type values.
type DatabaseType string

// Supported database types.
const (
	// Sqlite is the embedded file-backed engine.
	Sqlite DatabaseType = "Sqlite"
	// Postgres is the client/server engine.
	Postgres DatabaseType = "Postgres"
	// DuckDB is an embedded analytical engine.
	DuckDB DatabaseType = "DuckDB"
	// MySQL is a client/server engine (MySQL and MariaDB).
	MySQL DatabaseType = "MySQL"
)

// DatabaseTypes returns every known type in display order.
func DatabaseTypes() []DatabaseType {
	return []DatabaseType{Sqlite, Postgres, DuckDB, MySQL}
}

// ParseDatabaseType resolves a case-insensitive name or alias.
func ParseDatabaseType(s string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return Sqlite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "duckdb":
		return DuckDB, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return "", InvalidInputf("unknown database type %q (expected one of %v)", s, DatabaseTypes())
}

// Valid reports whether t is a known type.
func (t DatabaseType) Valid() bool {
	switch t {
	case Sqlite, Postgres, DuckDB, MySQL:
		return true
	}
	return false
}

// IsEmbedded reports whether the type is a file-backed engine living in-process.
func (t DatabaseType) IsEmbedded() bool {
	return t == Sqlite || t == DuckDB
}

func (t DatabaseType) String() string {
	return string(t)
}

// ConnectionConfig is one saved connection.
// Name is the unique key within the store; records are only ever appended
// or removed as a whole, never edited in place.
type ConnectionConfig struct {
	Name             string       `json:"name"`
	DBType           DatabaseType `json:"db_type"`
	ConnectionString string       `json:"connection_string"`
}

// Validate checks that the record can be saved.
func (c ConnectionConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return InvalidInputf("connection name is required")
	}
	if !c.DBType.Valid() {
		return InvalidInputf("unknown database type %q", c.DBType)
	}
	if strings.TrimSpace(c.ConnectionString) == "" {
		return InvalidInputf("connection string is required for %q", c.Name)
	}
	return nil
}

// Usable reports whether the record carries a secret. Connections loaded
// without one must be re-entered before use.
func (c ConnectionConfig) Usable() bool {
	return c.ConnectionString != ""
}

func (c ConnectionConfig) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.DBType)
}

// ConnectionMetadata is the persisted projection of a ConnectionConfig.
// UnsafePassword is a plaintext fallback copy of the connection string,
// read only when secure storage has nothing for Name.
type ConnectionMetadata struct {
	Name           string       `json:"name"`
	DBType         DatabaseType `json:"db_type"`
	UnsafePassword *string      `json:"unsafe_password"`
}
