package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/slickdata/pkg/core"
	"gopkg.in/yaml.v3"
)

// renderResult writes res in the given format.
func renderResult(w io.Writer, res *core.QueryResult, format string) error {
	if res == nil {
		res = core.EmptyResult()
	}
	switch format {
	case "json":
		return renderJSON(w, res)
	case "csv":
		return renderCSV(w, res)
	case "md", "markdown":
		return renderMarkdown(w, res)
	case "yaml":
		return renderYAML(w, res)
	default:
		return renderTable(w, res)
	}
}

func renderTable(w io.Writer, res *core.QueryResult) error {
	if res.IsEmpty() {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range res.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", res.Len())
	return nil
}

// records pairs each row with the column names.
func records(res *core.QueryResult) []map[string]string {
	out := make([]map[string]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		rec := make(map[string]string, len(res.Columns))
		for i, col := range res.Columns {
			rec[col] = r[i]
		}
		out = append(out, rec)
	}
	return out
}

func renderJSON(w io.Writer, res *core.QueryResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records(res))
}

func renderCSV(w io.Writer, res *core.QueryResult) error {
	cw := csv.NewWriter(w)
	if len(res.Columns) > 0 {
		if err := cw.Write(res.Columns); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(res.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func renderMarkdown(w io.Writer, res *core.QueryResult) error {
	if res.IsEmpty() {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escapeMarkdown(res.Columns), " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, r := range res.Rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escapeMarkdown(r), " | "))
	}
	return nil
}

func escapeMarkdown(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		out[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return out
}

// renderYAML writes a sequence of mappings, keeping column order.
func renderYAML(w io.Writer, res *core.QueryResult) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range res.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range res.Columns {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r[i]},
			)
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// tablesResult lists tables as a result so every format applies.
func tablesResult(tables []core.Table) *core.QueryResult {
	res := &core.QueryResult{Columns: []string{"schema", "name"}}
	for _, t := range tables {
		res.Rows = append(res.Rows, []string{t.SchemaName(), t.Name})
	}
	return res
}

// columnsResult lists columns as a result so every format applies.
func columnsResult(columns []core.Column) *core.QueryResult {
	res := &core.QueryResult{Columns: []string{"name", "type", "nullable", "primary_key"}}
	for _, c := range columns {
		res.Rows = append(res.Rows, []string{c.Name, c.DataType, yesNo(c.IsNullable), yesNo(c.IsPrimaryKey)})
	}
	return res
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
