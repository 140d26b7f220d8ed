package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/slickdata/internal/bridge"
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/history"
	"github.com/leapstack-labs/slickdata/internal/testutil"
	"github.com/leapstack-labs/slickdata/pkg/core"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query <connection> [SQL]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Example)

	for _, flag := range []string{"format", "input", "sort", "desc"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewConnectionsCommand(t *testing.T) {
	cmd := NewConnectionsCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "add", "remove", "check"}, names)
}

func TestRenderResult(t *testing.T) {
	res := &core.QueryResult{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "Alice"}, {"2", "B|ob"}},
	}

	tests := []struct {
		format string
		want   []string
	}{
		{"table", []string{"id", "Alice", "(2 rows)"}},
		{"json", []string{`"name": "Alice"`, `"id": "2"`}},
		{"csv", []string{"id,name\n1,Alice\n2,B|ob\n"}},
		{"md", []string{"| id | name |", "| --- | --- |", `| 2 | B\|ob |`}},
		{"yaml", []string{"- id: \"1\"\n  name: Alice\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, renderResult(&buf, res, tt.format))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRenderResult_Empty(t *testing.T) {
	for _, format := range []string{"table", "md"} {
		var buf bytes.Buffer
		require.NoError(t, renderResult(&buf, core.EmptyResult(), format))
		assert.Equal(t, "(0 rows)\n", buf.String())
	}

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, nil, "json"))
	assert.Equal(t, "[]\n", buf.String())
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://user:secret@db:5432/app", "postgres://user:xxxxx@db:5432/app"},
		{"postgres://db:5432/app", "postgres://db:5432/app"},
		{"user:secret@tcp(db:3306)/shop", "user:xxxxx@tcp(db:3306)/shop"},
		{"/home/me/app.db", "/home/me/app.db"},
		{"sqlite:///home/me/app.db", "sqlite:///home/me/app.db"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, maskSecret(tt.in))
		})
	}
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t", oneLine("SELECT *\n  FROM t", 60))
	assert.Equal(t, "abcd…", oneLine("abcdefgh", 5))
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	assert.Equal(t, "(no history)\n", buf.String())

	buf.Reset()
	renderHistory(&buf, []history.Entry{
		{Connection: "local", SQL: "SELECT 1", RowCount: 1234, Duration: 3 * time.Millisecond, ExecutedAt: time.Now()},
		{Connection: "local", SQL: "SELECT * FROM missing", Error: "no such table: missing", ExecutedAt: time.Now()},
	})
	out := buf.String()
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "no such table: missing")
	assert.Contains(t, out, "now")
}

func newTestREPL(t *testing.T) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	cfg := testutil.NewSQLiteFile(t, "people", testutil.PeopleDDL...)
	logger := testutil.NewTestLogger(t)
	br := bridge.New(bridge.WithLogger(logger))
	t.Cleanup(func() { _ = br.Shutdown(context.Background()) })

	c, err := client.Open(context.Background(), br, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(c.Release)

	h, err := history.Open(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	var out, errOut bytes.Buffer
	cc := &CommandContext{Logger: logger, Bridge: br}
	return newREPL(c, h, cc, "csv", &out, &errOut), &out, &errOut
}

func TestREPL_MultiLineStatement(t *testing.T) {
	r, out, errOut := newTestREPL(t)
	ctx := context.Background()

	assert.False(t, r.handleLine(ctx, "SELECT name"))
	assert.True(t, r.pending())
	assert.Empty(t, out.String())

	// Dot commands are SQL text while a statement is pending.
	assert.False(t, r.handleLine(ctx, "FROM people ORDER BY id;"))
	assert.False(t, r.pending())
	assert.Equal(t, "name\nAlice\nBob\nCarol\n\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestREPL_DotCommands(t *testing.T) {
	r, out, errOut := newTestREPL(t)
	ctx := context.Background()

	r.handleLine(ctx, ".tables")
	assert.Contains(t, out.String(), ",people")

	out.Reset()
	r.handleLine(ctx, ".schema people")
	assert.Contains(t, out.String(), "age,INTEGER")

	r.handleLine(ctx, ".format json")
	assert.Equal(t, "json", r.format)
	r.handleLine(ctx, ".format xml")
	assert.Contains(t, errOut.String(), `Unknown format "xml"`)
	assert.Equal(t, "json", r.format)

	r.handleLine(ctx, ".format csv")
	r.handleLine(ctx, "SELECT name, age FROM people;")
	out.Reset()
	r.handleLine(ctx, ".sort age desc")
	assert.True(t, strings.HasPrefix(out.String(), "name,age\nCarol,41\n"), out.String())

	out.Reset()
	r.handleLine(ctx, ".history")
	assert.Contains(t, out.String(), "SELECT name, age FROM people")

	assert.True(t, r.handleLine(ctx, ".quit"))
}

func TestREPL_Errors(t *testing.T) {
	r, _, errOut := newTestREPL(t)
	ctx := context.Background()

	r.handleLine(ctx, "SELECT * FROM missing;")
	assert.Contains(t, errOut.String(), "Error: ")
	assert.Contains(t, errOut.String(), "missing")

	errOut.Reset()
	r.handleLine(ctx, ".sort nope")
	assert.Contains(t, errOut.String(), "unknown column")

	errOut.Reset()
	r.handleLine(ctx, ".bogus")
	assert.Contains(t, errOut.String(), "Unknown command: .bogus")
}

func TestTerminalCheck(t *testing.T) {
	tests := []struct {
		profile termenv.Profile
		status  string
	}{
		{termenv.TrueColor, "ok"},
		{termenv.ANSI256, "ok"},
		{termenv.ANSI, "ok"},
		{termenv.Ascii, "warn"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, terminalCheck(tt.profile).Status)
	}
}

func TestRenderDoctor(t *testing.T) {
	var buf bytes.Buffer
	renderDoctor(&buf, []DoctorCheck{{Name: "secure storage", Status: "warn", Detail: "disabled by configuration"}})
	assert.Contains(t, buf.String(), "Secure Storage")
	assert.Contains(t, buf.String(), "disabled by configuration")
}
