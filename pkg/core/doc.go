// Package core defines the shared language of slickdata.
//
// This package contains:
//   - The generic result model (Table, Column, QueryResult)
//   - Connection records (DatabaseType, ConnectionConfig, ConnectionMetadata)
//   - The error taxonomy surfaced to the UI layer (Error, ErrorKind)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
