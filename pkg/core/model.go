package core

// Table represents one queryable relation.
// Identity is (Schema, Name); Schema is nil for embedded engines.
type Table struct {
	Name   string  `json:"name"`
	Schema *string `json:"schema"`
}

// NewTable creates a table with an optional schema ("" means none).
func NewTable(name, schema string) Table {
	t := Table{Name: name}
	if schema != "" {
		t.Schema = &schema
	}
	return t
}

// SchemaName returns the schema or "" when the backend has no schemas.
func (t Table) SchemaName() string {
	if t.Schema == nil {
		return ""
	}
	return *t.Schema
}

// QualifiedName returns schema.name, or just name when there is no schema.
func (t Table) QualifiedName() string {
	if t.Schema == nil || *t.Schema == "" {
		return t.Name
	}
	return *t.Schema + "." + t.Name
}

// Column describes one column of a table as reported by schema introspection.
//
// IsPrimaryKey is best-effort: some backends report false for every column
// because determining key membership needs a more expensive query.
type Column struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsNullable   bool   `json:"is_nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// NullCell is the rendering of NULL and of cells that could not be decoded.
const NullCell = "NULL"

// QueryResult is a backend-independent tabular result.
// Every row has exactly len(Columns) cells, always rendered as strings.
type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// EmptyResult returns a result with no columns and no rows.
// Slices are non-nil so JSON renders them as [].
func EmptyResult() *QueryResult {
	return &QueryResult{Columns: []string{}, Rows: [][]string{}}
}

// Width returns the number of columns.
func (r *QueryResult) Width() int {
	if r == nil {
		return 0
	}
	return len(r.Columns)
}

// Len returns the number of rows.
func (r *QueryResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// IsEmpty reports whether the result has no rows.
func (r *QueryResult) IsEmpty() bool {
	return r.Len() == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (r *QueryResult) ColumnIndex(name string) int {
	if r == nil {
		return -1
	}
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the result.
func (r *QueryResult) Clone() *QueryResult {
	if r == nil {
		return nil
	}
	out := &QueryResult{
		Columns: append([]string{}, r.Columns...),
		Rows:    make([][]string, len(r.Rows)),
	}
	for i, row := range r.Rows {
		out.Rows[i] = append([]string{}, row...)
	}
	return out
}
