package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/query"
)

// Statement is one call that reached the backend.
type Statement struct {
	Seq      int64
	Session  string
	Mutating bool
	SQL      string
	Params   []any
	Rows     int   // rows returned by a query
	Affected int64 // rows changed by a mutation
	Err      error
}

// Recorder is a query.Backend that logs every statement before passing it
// to the wrapped backend. Snapshots are forwarded when the wrapped backend
// supports them.
//
// Safe for concurrent use.
type Recorder struct {
	next query.Backend

	mu    sync.Mutex
	seq   int64
	stmts []Statement
}

// NewRecorder wraps next.
func NewRecorder(next query.Backend) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) Execute(ctx context.Context, sql string, params []any) ([][]any, error) {
	rows, err := r.next.Execute(ctx, sql, params)
	r.record(ctx, Statement{SQL: sql, Params: params, Rows: len(rows), Err: err})
	return rows, err
}

func (r *Recorder) ExecuteMutating(ctx context.Context, sql string, params []any) (int64, error) {
	n, err := r.next.ExecuteMutating(ctx, sql, params)
	r.record(ctx, Statement{Mutating: true, SQL: sql, Params: params, Affected: n, Err: err})
	return n, err
}

// Snapshot implements query.Snapshotter.
func (r *Recorder) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if s, ok := r.next.(query.Snapshotter); ok {
		return s.Snapshot(ctx, fn)
	}
	return fn(ctx)
}

func (r *Recorder) record(ctx context.Context, st Statement) {
	st.Session, _ = query.SessionFromContext(ctx)
	st.Params = append([]any(nil), st.Params...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	st.Seq = r.seq
	r.stmts = append(r.stmts, st)
}

// Statements returns a copy of everything recorded so far.
func (r *Recorder) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Statement(nil), r.stmts...)
}

// Reset forgets recorded statements and restarts numbering at 1.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq = 0
	r.stmts = nil
}

// Trace renders the recorded statements as canonical JSON.
func (r *Recorder) Trace() ([]byte, error) {
	stmts := r.Statements()
	list := make([]any, len(stmts))
	for i, st := range stmts {
		m := map[string]any{
			"seq":    st.Seq,
			"sql":    st.SQL,
			"params": canonicalParams(st.Params),
		}
		if st.Session != "" {
			m["session"] = st.Session
		}
		if st.Mutating {
			m["affected"] = st.Affected
		} else {
			m["rows"] = st.Rows
		}
		if st.Err != nil {
			m["error"] = st.Err.Error()
		}
		list[i] = m
	}
	return ir.MarshalCanonical(map[string]any{"statements": list})
}

// AssertGolden compares the trace with testdata/golden/<name>.golden in the
// calling package. Run the tests with -update to rewrite the file.
func (r *Recorder) AssertGolden(t *testing.T, name string) {
	t.Helper()
	data, err := r.Trace()
	if err != nil {
		t.Fatalf("render trace: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, append(data, '\n'))
}

// canonicalParams converts driver parameters to values canonical JSON
// accepts. Floats are written in their shortest exact decimal form.
func canonicalParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case nil, string, int64, int, bool:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
