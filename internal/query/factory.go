package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/queryir"
	"github.com/helloworldkim/querydsl/internal/querysql"
)

// Backend executes translated statements. Implemented by store.Store.
type Backend interface {
	// Execute runs a row-returning statement and returns raw driver values.
	Execute(ctx context.Context, sql string, params []any) ([][]any, error)
	// ExecuteMutating runs an update or delete and returns the affected-row count.
	ExecuteMutating(ctx context.Context, sql string, params []any) (int64, error)
}

// Snapshotter is implemented by backends that can run several statements
// against one consistent view of the data. FetchResults uses it when the
// backend provides it.
type Snapshotter interface {
	Snapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// Translator turns specs into parameterized SQL.
// Implemented by querysql.SQLCompiler.
type Translator interface {
	Translate(q *queryir.QuerySpec) (string, []any, error)
	TranslateCount(q *queryir.QuerySpec) (string, []any, error)
	TranslateMutating(m *queryir.MutatingSpec) (string, []any, error)
}

// TokenGenerator produces the session token that correlates the log lines
// of one terminal call.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
// It is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Factory creates query and bulk-statement builders bound to one backend.
//
// A Factory is immutable after NewFactory and safe for concurrent use; the
// builders it creates are not.
type Factory struct {
	backend    Backend
	translator Translator
	tokens     TokenGenerator
	logger     *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger for statement execution.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// WithTranslator replaces the SQLite translator.
func WithTranslator(t Translator) Option {
	return func(f *Factory) { f.translator = t }
}

// WithTokenGenerator sets the session token source.
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(f *Factory) { f.tokens = g }
}

// NewFactory creates a Factory executing against backend.
func NewFactory(backend Backend, opts ...Option) *Factory {
	f := &Factory{
		backend:    backend,
		translator: querysql.NewSQLCompiler(),
		tokens:     UUIDv7Generator{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type sessionKey struct{}

// SessionFromContext returns the session token of the terminal call that
// issued the statement running under ctx.
func SessionFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sessionKey{}).(string)
	return s, ok
}

// session starts a unit of work: one token for every statement a terminal
// call issues. A context that already carries a session keeps it.
func (f *Factory) session(ctx context.Context) context.Context {
	if _, ok := SessionFromContext(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, f.tokens.Generate())
}

// snapshot runs fn inside a backend snapshot when the backend has one.
func (f *Factory) snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if s, ok := f.backend.(Snapshotter); ok {
		return s.Snapshot(ctx, fn)
	}
	return fn(ctx)
}

// rows executes a translated select. Backend failures come back as
// BACKEND_EXECUTION errors wrapping the cause.
func (f *Factory) rows(ctx context.Context, op, sql string, params []any) ([][]any, error) {
	log := f.statementLogger(ctx, sql, params)
	log.Debug("executing query", "op", op)

	raw, err := f.backend.Execute(ctx, sql, params)
	if err != nil {
		log.Error("query failed", "op", op, "error", err)
		return nil, ir.NewBackendError(op, err)
	}
	log.Debug("query executed", "op", op, "rows", len(raw))
	return raw, nil
}

// mutate executes a translated bulk statement.
func (f *Factory) mutate(ctx context.Context, op, sql string, params []any) (int64, error) {
	log := f.statementLogger(ctx, sql, params)
	log.Debug("executing statement", "op", op)

	n, err := f.backend.ExecuteMutating(ctx, sql, params)
	if err != nil {
		log.Error("statement failed", "op", op, "error", err)
		return 0, ir.NewBackendError(op, err)
	}
	log.Debug("statement executed", "op", op, "affected", n)
	return n, nil
}

// logResult logs a fingerprint of a decoded result. Reads of one snapshot
// log the same result_hash.
func (f *Factory) logResult(ctx context.Context, sql string, params []any, rows [][]ir.IRValue) {
	h, err := ir.ResultHash(rows)
	if err != nil {
		return
	}
	f.statementLogger(ctx, sql, params).Debug("result decoded", "rows", len(rows), "result_hash", h)
}

// translateError keeps the code of a rejected spec and reports any other
// translator failure as BACKEND_EXECUTION.
func translateError(err error) error {
	var qe *ir.QueryError
	if errors.As(err, &qe) {
		return err
	}
	return ir.NewBackendError("translate", err)
}

func (f *Factory) statementLogger(ctx context.Context, sql string, params []any) *slog.Logger {
	log := f.logger.With("sql", sql)
	if id, err := ir.StatementID(sql, params); err == nil {
		log = log.With("statement_id", id)
	}
	if s, ok := SessionFromContext(ctx); ok {
		log = log.With("session", s)
	}
	return log
}
