package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmine/internal/pipeline"
	"github.com/leapstack-labs/sqlmine/internal/shard"
	"github.com/leapstack-labs/sqlmine/internal/sink"
	"github.com/leapstack-labs/sqlmine/internal/state"
	"github.com/leapstack-labs/sqlmine/internal/testutil"
	"github.com/leapstack-labs/sqlmine/pkg/sandbox"

	_ "github.com/leapstack-labs/sqlmine/pkg/sandboxes/sqlite"
)

type memSink struct {
	mu   sync.Mutex
	rows []sink.Row
	err  error
}

func (s *memSink) Write(rows ...sink.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *memSink) Flush() error { return nil }

func (s *memSink) Rows() []sink.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sink.Row(nil), s.rows...)
}

type fakeLedger struct {
	mu      sync.Mutex
	shards  map[string]state.Counts
	unknown []string
}

func (l *fakeLedger) RecordShard(_, shard string, c state.Counts) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shards == nil {
		l.shards = map[string]state.Counts{}
	}
	l.shards[shard] = c
	return nil
}

func (l *fakeLedger) RecordUnclassified(_, engine, query, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unknown = append(l.unknown, engine+"|"+query+"|"+message)
	return nil
}

// scriptedSandbox accepts everything unless attempt returns an error.
type scriptedSandbox struct {
	attempt func(sql string) error
}

func (s *scriptedSandbox) Connect(context.Context, sandbox.Config) error { return nil }
func (s *scriptedSandbox) Reset(context.Context) error                   { return nil }
func (s *scriptedSandbox) Close() error                                  { return nil }
func (s *scriptedSandbox) Name() string                                  { return "scripted" }

func (s *scriptedSandbox) Attempt(_ context.Context, sql string) error {
	if s.attempt == nil {
		return nil
	}
	return s.attempt(sql)
}

// slowSandbox cancels the run while a candidate is executing and fails the
// attempt if it observes that cancellation.
type slowSandbox struct {
	scriptedSandbox
	cancel   context.CancelFunc
	attempts int
}

func (s *slowSandbox) Attempt(ctx context.Context, _ string) error {
	s.attempts++
	s.cancel()
	if err := ctx.Err(); err != nil {
		return &sandbox.FailureError{Op: "begin", Err: err}
	}
	return nil
}

func python(query string) *string {
	return testutil.Ptr(fmt.Sprintf("cur.execute(%q)\n", query))
}

func newPipeline(t *testing.T, cfg pipeline.Config, out pipeline.Sink) *pipeline.Pipeline {
	t.Helper()
	cfg.Logger = testutil.NewTestLogger(t)
	return pipeline.New(cfg, out)
}

func TestRun_MissingContentIsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteShard(t, dir, "shard-000.json.gz",
		testutil.RecordLine(t, "acme/app", "no_content.py", nil),
		testutil.RecordLine(t, "acme/app", "db.py", testutil.Ptr(`cur.execute("SELECT 1")`)),
	)

	out := &memSink{}
	p := newPipeline(t, pipeline.Config{Workers: 2, Sandbox: sandbox.Config{Engine: "sqlite"}}, out)

	summary, err := p.Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, []sink.Row{{Repo: "acme/app", Path: "db.py", Query: "SELECT 1"}}, out.Rows())
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, int64(2), summary.Records)
	assert.Equal(t, int64(1), summary.Skipped)
	assert.Equal(t, int64(1), summary.Rows)
}

func TestRun_ClassifierFiltersRows(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteShard(t, dir, "s.json.gz",
		testutil.RecordLine(t, "r", "a.py", testutil.Ptr(
			"q1 = \"SELECT * FROM users\"\nq2 = \"SELECT * FORM users\"\nq3 = \"BEGIN TRANSACTION\"\n")),
	)

	out := &memSink{}
	p := newPipeline(t, pipeline.Config{Workers: 1, Sandbox: sandbox.Config{Engine: "sqlite"}}, out)

	summary, err := p.Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, []sink.Row{{Repo: "r", Path: "a.py", Query: "SELECT * FROM users"}}, out.Rows())
	assert.Equal(t, int64(3), summary.Candidates)
}

func TestRun_RecoverableErrorsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteShard(t, dir, "s.json.gz",
		testutil.RecordLine(t, "r", "README.md", testutil.Ptr("SELECT 1 FROM t")),
		testutil.RecordLine(t, "r", "broken.py", testutil.Ptr(`q = "SELECT 1`)),
		testutil.RecordLine(t, "r", "ok.py", python("SELECT 2")),
	)

	out := &memSink{}
	p := newPipeline(t, pipeline.Config{
		Workers:    1,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) { return &scriptedSandbox{}, nil },
	}, out)

	summary, err := p.Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.Skipped)
	require.Len(t, out.Rows(), 1)
	assert.Equal(t, "SELECT 2", out.Rows()[0].Query)
}

func TestRun_ManyShards(t *testing.T) {
	dir := t.TempDir()
	var shards []string
	for i := range 6 {
		shards = append(shards, testutil.WriteShard(t, dir, fmt.Sprintf("shard-%d.json.gz", i),
			testutil.RecordLine(t, "r", fmt.Sprintf("f%d.py", i), python(fmt.Sprintf("SELECT %d", i))),
			testutil.RecordLine(t, "r", fmt.Sprintf("g%d.go", i), testutil.Ptr(fmt.Sprintf("db.Query(\"DELETE FROM t WHERE id = %d\")\n", i))),
		))
	}

	out := &memSink{}
	ledger := &fakeLedger{}
	var last pipeline.Progress
	p := newPipeline(t, pipeline.Config{
		Workers:    3,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) { return &scriptedSandbox{}, nil },
		Ledger:     ledger,
		RunID:      "run-1",
		OnProgress: func(pr pipeline.Progress) { last = pr },
	}, out)

	summary, err := p.Run(context.Background(), shards)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Completed)
	assert.Equal(t, int64(12), summary.Rows)
	assert.Len(t, out.Rows(), 12)
	assert.Len(t, ledger.shards, 6)
	assert.Equal(t, state.Counts{Records: 2, Candidates: 2, Rows: 2}, ledger.shards["shard-0.json.gz"])
	assert.Equal(t, 6, last.Completed)
	assert.InDelta(t, 100.0, last.Percent(), 0.001)

	seen := map[string]bool{}
	for _, r := range out.Rows() {
		assert.False(t, seen[r.Path], "duplicate row for %s", r.Path)
		seen[r.Path] = true
	}
}

func TestRun_NoShards(t *testing.T) {
	out := &memSink{}
	p := newPipeline(t, pipeline.Config{
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) { return &scriptedSandbox{}, nil },
	}, out)

	summary, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Shards)
	assert.Empty(t, out.Rows())
}

func TestRun_WorkerFaultStopsRun(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteShard(t, dir, "bad.json.gz",
		testutil.RecordLine(t, "r", "a.py", python("SELECT 1")),
		`{"repo_name": "r", "path": `,
		testutil.RecordLine(t, "r", "b.py", python("SELECT 2")),
	)

	out := &memSink{}
	p := newPipeline(t, pipeline.Config{
		Workers:    1,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) { return &scriptedSandbox{}, nil },
	}, out)

	summary, err := p.Run(context.Background(), []string{path})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrCancelled)

	var recErr *shard.RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 2, recErr.Line)

	assert.Equal(t, 0, summary.Completed)
	// rows produced before the fault are kept
	assert.Equal(t, []sink.Row{{Repo: "r", Path: "a.py", Query: "SELECT 1"}}, out.Rows())
}

func TestRun_SandboxOpenFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteShard(t, dir, "s.json.gz", testutil.RecordLine(t, "r", "a.py", python("SELECT 1")))

	p := newPipeline(t, pipeline.Config{Workers: 1, Sandbox: sandbox.Config{Engine: "nope"}}, &memSink{})

	_, err := p.Run(context.Background(), []string{path})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrCancelled)

	var unknown *sandbox.UnknownEngineError
	assert.ErrorAs(t, err, &unknown)
}

func TestRun_SinkFailureStopsRun(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteShard(t, dir, "s.json.gz", testutil.RecordLine(t, "r", "a.py", python("SELECT 1")))

	diskFull := errors.New("disk full")
	p := newPipeline(t, pipeline.Config{
		Workers:    1,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) { return &scriptedSandbox{}, nil },
	}, &memSink{err: diskFull})

	_, err := p.Run(context.Background(), []string{path})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrCancelled)
	assert.ErrorIs(t, err, diskFull)
}

func TestRun_CancellationKeepsPrefix(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := range 5 {
		lines = append(lines, testutil.RecordLine(t, "r", fmt.Sprintf("f%d.py", i), python(fmt.Sprintf("SELECT %d", i))))
	}
	path := testutil.WriteShard(t, dir, "s.json.gz", lines...)

	full := &memSink{}
	_, err := newPipeline(t, pipeline.Config{
		Workers:    1,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) { return &scriptedSandbox{}, nil },
	}, full).Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, full.Rows(), 5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	partial := &memSink{}
	summary, err := newPipeline(t, pipeline.Config{
		Workers: 1,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) {
			return &scriptedSandbox{attempt: func(string) error {
				attempts++
				if attempts == 2 {
					cancel()
				}
				return nil
			}}, nil
		},
	}, partial).Run(ctx, []string{path})

	require.ErrorIs(t, err, pipeline.ErrCancelled)
	assert.Equal(t, 0, summary.Completed)

	// the record being classified when the run was cancelled is kept
	got := partial.Rows()
	require.Len(t, got, 2)
	assert.Equal(t, full.Rows()[:2], got)
}

func TestRun_CancellationCompletesInFlightCandidate(t *testing.T) {
	dir := t.TempDir()
	src := `cur.execute("SELECT 1")
cur.execute("SELECT 2")
cur.execute("SELECT 3")
`
	path := testutil.WriteShard(t, dir, "s.json.gz", testutil.RecordLine(t, "r", "a.py", &src))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sb := &slowSandbox{cancel: cancel}
	out := &memSink{}
	summary, err := newPipeline(t, pipeline.Config{
		Workers:    1,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) { return sb, nil },
	}, out).Run(ctx, []string{path})

	require.ErrorIs(t, err, pipeline.ErrCancelled)
	assert.Equal(t, 0, summary.Completed)
	assert.Equal(t, 1, sb.attempts, "no candidate is started after cancellation")
	assert.Equal(t, []sink.Row{{Repo: "r", Path: "a.py", Query: "SELECT 1"}}, out.Rows())
	assert.Equal(t, int64(1), summary.Rows)
}

func TestRun_UnknownErrorsReachLedger(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteShard(t, dir, "s.json.gz", testutil.RecordLine(t, "r", "a.py", python("SELECT 1")))

	ledger := &fakeLedger{}
	out := &memSink{}
	p := newPipeline(t, pipeline.Config{
		Workers: 1,
		NewSandbox: func(context.Context) (sandbox.Sandbox, error) {
			return &scriptedSandbox{attempt: func(string) error { return errors.New("flux capacitor overload") }}, nil
		},
		Ledger: ledger,
		RunID:  "run-1",
	}, out)

	_, err := p.Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Empty(t, out.Rows())
	assert.Equal(t, []string{"scripted|SELECT 1|flux capacitor overload"}, ledger.unknown)
}

func TestProgress_Percent(t *testing.T) {
	assert.InDelta(t, 50.0, pipeline.Progress{Completed: 1, Total: 2}.Percent(), 0.001)
	assert.InDelta(t, 100.0, pipeline.Progress{}.Percent(), 0.001)
}
