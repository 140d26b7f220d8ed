package results

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/slickdata/internal/bridge"
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/internal/notifier"
	"github.com/leapstack-labs/slickdata/internal/testutil"
	"github.com/leapstack-labs/slickdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExecutor returns canned results and remembers every query.
type recordingExecutor struct {
	mu      sync.Mutex
	queries []string
	result  *core.QueryResult
	err     error
}

func (r *recordingExecutor) Execute(_ context.Context, query string) (*core.QueryResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	return r.result.Clone(), nil
}

func (r *recordingExecutor) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[len(r.queries)-1]
}

func peopleResult() *core.QueryResult {
	return &core.QueryResult{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"2", "bob"}, {"10", "alice"}, {"1", "carol"}},
	}
}

func openPeople(t *testing.T) *client.Client {
	t.Helper()
	cfg := testutil.NewSQLiteFile(t, "people", testutil.PeopleDDL...)
	c, err := client.Open(context.Background(), bridge.New(), cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

func TestView_SortRewritesQuery(t *testing.T) {
	exec := &recordingExecutor{result: peopleResult()}
	v := NewView(WithExecutor(exec))
	ctx := context.Background()

	require.NoError(t, v.Run(ctx, "SELECT * FROM t"))
	assert.Equal(t, uint64(1), v.Generation())

	require.NoError(t, v.Sort(ctx, "name", Ascending))
	assert.Equal(t, `SELECT * FROM t ORDER BY "name" ASC`, exec.last())
	assert.Equal(t, SortState{Column: "name", Direction: Ascending}, v.SortState())
	assert.Equal(t, uint64(2), v.Generation())

	require.NoError(t, v.Sort(ctx, "name", Unspecified))
	assert.Equal(t, `SELECT * FROM t ORDER BY "name" DESC`, exec.last())
	assert.Equal(t, Descending, v.SortState().Direction)

	require.NoError(t, v.Sort(ctx, "name", Unspecified))
	assert.Equal(t, `SELECT * FROM t ORDER BY "name" ASC`, exec.last(), "toggle from descending goes ascending")

	require.NoError(t, v.Sort(ctx, "id", Unspecified))
	assert.Equal(t, `SELECT * FROM t ORDER BY "id" ASC`, exec.last(), "a different column starts ascending")
}

func TestView_SortDefaultStripsOrderBy(t *testing.T) {
	exec := &recordingExecutor{result: peopleResult()}
	v := NewView(WithExecutor(exec))
	ctx := context.Background()

	require.NoError(t, v.Run(ctx, "SELECT * FROM t ORDER BY id"))
	require.NoError(t, v.Sort(ctx, "name", Descending))
	require.NoError(t, v.Sort(ctx, "name", Default))

	assert.Equal(t, "SELECT * FROM t", exec.last())
	assert.Equal(t, SortState{}, v.SortState())
}

func TestView_SortFailureKeepsState(t *testing.T) {
	exec := &recordingExecutor{result: peopleResult()}
	v := NewView(WithExecutor(exec))
	ctx := context.Background()

	require.NoError(t, v.Run(ctx, "SELECT * FROM t"))
	before, gen := v.Snapshot()

	exec.err = core.QueryError(errors.New("no such column: name"))
	err := v.Sort(ctx, "name", Ascending)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQueryExecution)

	after, genAfter := v.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, gen, genAfter)
	assert.Equal(t, "SELECT * FROM t", v.Query())
	assert.Equal(t, SortState{}, v.SortState())
}

func TestView_RunFailureKeepsResult(t *testing.T) {
	exec := &recordingExecutor{result: peopleResult()}
	v := NewView(WithExecutor(exec))
	ctx := context.Background()
	require.NoError(t, v.Run(ctx, "SELECT * FROM t"))

	exec.err = errors.New("syntax error")
	err := v.Run(ctx, "SELEC")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQueryExecution)
	assert.Equal(t, "SELECT * FROM t", v.Query())

	res, _ := v.Snapshot()
	assert.Equal(t, peopleResult(), res)
}

func TestView_RunWithoutExecutor(t *testing.T) {
	err := NewView().Run(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQueryExecution)
}

func TestView_UnknownColumn(t *testing.T) {
	v := NewView()
	v.SetResult("", peopleResult())

	err := v.Sort(context.Background(), "missing", Ascending)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestView_LocalSort(t *testing.T) {
	v := NewView()
	v.SetResult("", peopleResult())
	ctx := context.Background()

	require.NoError(t, v.Sort(ctx, "name", Unspecified))
	res, _ := v.Snapshot()
	assert.Equal(t, [][]string{{"10", "alice"}, {"2", "bob"}, {"1", "carol"}}, res.Rows)

	require.NoError(t, v.Sort(ctx, "name", Unspecified))
	res, _ = v.Snapshot()
	assert.Equal(t, [][]string{{"1", "carol"}, {"2", "bob"}, {"10", "alice"}}, res.Rows)

	// Lexicographic, not numeric.
	require.NoError(t, v.Sort(ctx, "id", Ascending))
	res, _ = v.Snapshot()
	assert.Equal(t, [][]string{{"1", "carol"}, {"10", "alice"}, {"2", "bob"}}, res.Rows)

	// Default does not restore insertion order.
	require.NoError(t, v.Sort(ctx, "id", Default))
	res, _ = v.Snapshot()
	assert.Equal(t, [][]string{{"1", "carol"}, {"10", "alice"}, {"2", "bob"}}, res.Rows)
	assert.Equal(t, SortState{}, v.SortState())
	assert.Empty(t, v.Query(), "local sorts store no query")
}

func TestView_LocalSortIsStable(t *testing.T) {
	v := NewView()
	v.SetResult("", &core.QueryResult{
		Columns: []string{"k", "seq"},
		Rows:    [][]string{{"b", "1"}, {"a", "2"}, {"b", "3"}, {"a", "4"}},
	})

	require.NoError(t, v.Sort(context.Background(), "k", Ascending))
	res, _ := v.Snapshot()
	assert.Equal(t, [][]string{{"a", "2"}, {"a", "4"}, {"b", "1"}, {"b", "3"}}, res.Rows)
}

func TestView_SnapshotIsACopy(t *testing.T) {
	v := NewView()
	v.SetResult("", peopleResult())

	res, _ := v.Snapshot()
	res.Rows[0][0] = "mutated"

	again, _ := v.Snapshot()
	assert.Equal(t, "2", again.Rows[0][0])
}

func TestView_NotifiesGenerations(t *testing.T) {
	n := notifier.New()
	ch, unsub := n.Subscribe()
	defer unsub()

	v := NewView(WithNotifier(n))
	v.SetResult("", peopleResult())

	select {
	case gen := <-ch:
		assert.Equal(t, uint64(1), gen)
	case <-time.After(time.Second):
		t.Fatal("no generation broadcast")
	}

	require.NoError(t, v.Sort(context.Background(), "id", Ascending))
	select {
	case gen := <-ch:
		assert.Equal(t, uint64(2), gen)
	case <-time.After(time.Second):
		t.Fatal("no generation broadcast after sort")
	}
}

func TestView_SQLiteRoundTrip(t *testing.T) {
	c := openPeople(t)
	v := NewView(WithExecutor(c), WithLogger(testutil.NewTestLogger(t)))
	ctx := context.Background()

	require.NoError(t, v.Run(ctx, "SELECT * FROM people;"))

	require.NoError(t, v.Sort(ctx, "name", Descending))
	res, _ := v.Snapshot()
	assert.Equal(t, []string{"Carol", "Bob", "Alice"}, column(res, 1))
	assert.Equal(t, `SELECT * FROM people ORDER BY "name" DESC`, v.Query())

	require.NoError(t, v.Sort(ctx, "age", Unspecified))
	res, _ = v.Snapshot()
	assert.Equal(t, []string{"25", "30", "41"}, column(res, 2))

	require.NoError(t, v.Sort(ctx, "age", Unspecified))
	res, _ = v.Snapshot()
	assert.Equal(t, []string{"41", "30", "25"}, column(res, 2))

	v.SetExecutor(nil)
	require.NoError(t, v.Sort(ctx, "name", Ascending))
	res, _ = v.Snapshot()
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, column(res, 1))
}

func TestView_SQLiteSortError(t *testing.T) {
	c := openPeople(t)
	v := NewView(WithExecutor(c))
	ctx := context.Background()

	require.NoError(t, v.Run(ctx, "SELECT * FROM people"))
	before, gen := v.Snapshot()

	_, err := c.Execute(ctx, "DROP TABLE people")
	require.NoError(t, err)

	err = v.Sort(ctx, "name", Ascending)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQueryExecution)
	assert.Contains(t, err.Error(), "no such table")

	after, genAfter := v.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, gen, genAfter)
	assert.Equal(t, "SELECT * FROM people", v.Query())
}

func column(res *core.QueryResult, idx int) []string {
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, row[idx])
	}
	return out
}
