package query_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helloworldkim/querydsl/internal/entity"
	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/query"
	"github.com/helloworldkim/querydsl/internal/queryir"
	"github.com/helloworldkim/querydsl/internal/testutil"
)

func TestFactory_LogsStatements(t *testing.T) {
	s, _ := testutil.MembersStore(t)
	var buf bytes.Buffer
	f := query.NewFactory(s,
		query.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		query.WithTokenGenerator(testutil.NewSessions("tx")),
	)
	member := entity.NewQMember("member")
	q := query.SelectFrom(f, member).Where(member.Age.Gt(15))
	ctx := context.Background()

	_, err := q.Fetch(ctx)
	require.NoError(t, err)
	_, err = q.Fetch(ctx)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "session=tx-1")
	assert.Contains(t, out, "session=tx-2")

	ids := regexp.MustCompile(`statement_id=([0-9a-f]{64})`).FindAllStringSubmatch(out, -1)
	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Equal(t, ids[0][1], id[1], "one statement, one id")
	}

	hashes := regexp.MustCompile(`result_hash=([0-9a-f]{64})`).FindAllStringSubmatch(out, -1)
	require.Len(t, hashes, 2)
	assert.Equal(t, hashes[0][1], hashes[1][1])
}

func TestFactory_QuietAboveDebug(t *testing.T) {
	s, _ := testutil.MembersStore(t)
	var buf bytes.Buffer
	f := query.NewFactory(s, query.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	member := entity.NewQMember("member")

	_, err := query.SelectFrom(f, member).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestFactory_DefaultSessionsAreUUIDs(t *testing.T) {
	e := newEnv(t)
	f := query.NewFactory(e.rec)

	_, err := query.SelectFrom(f, e.member).Fetch(context.Background())
	require.NoError(t, err)

	stmts := e.rec.Statements()
	require.Len(t, stmts, 1)
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`, stmts[0].Session)
}

type brokenTranslator struct{}

func (brokenTranslator) Translate(*queryir.QuerySpec) (string, []any, error) {
	return "", nil, errors.New("no dialect")
}

func (brokenTranslator) TranslateCount(*queryir.QuerySpec) (string, []any, error) {
	return "", nil, errors.New("no dialect")
}

func (brokenTranslator) TranslateMutating(*queryir.MutatingSpec) (string, []any, error) {
	return "", nil, errors.New("no dialect")
}

// narrowBackend answers every query with a single one-column row.
type narrowBackend struct{}

func (narrowBackend) Execute(context.Context, string, []any) ([][]any, error) {
	return [][]any{{int64(1)}}, nil
}

func (narrowBackend) ExecuteMutating(context.Context, string, []any) (int64, error) {
	return 0, nil
}

func TestFactory_TranslationFailureIsBackendError(t *testing.T) {
	e := newEnv(t)
	f := query.NewFactory(e.rec, query.WithTranslator(brokenTranslator{}))
	ctx := context.Background()

	_, err := query.SelectFrom(f, e.member).Fetch(ctx)
	assert.True(t, ir.IsBackendError(err), "got %v", err)
	_, err = query.SelectFrom(f, e.member).FetchCount(ctx)
	assert.True(t, ir.IsBackendError(err), "got %v", err)
	_, err = f.Delete(e.member).All().Execute(ctx)
	assert.True(t, ir.IsBackendError(err), "got %v", err)
	assert.EqualError(t, errors.Unwrap(err), "no dialect")

	assert.Empty(t, e.rec.Statements())
}

func TestFactory_RejectedSpecKeepsItsCode(t *testing.T) {
	e := newEnv(t)

	_, err := e.f.Delete(e.member).Execute(context.Background())
	assert.True(t, ir.HasCode(err, ir.ErrCodeUnboundedMutation), "got %v", err)
	assert.False(t, ir.IsBackendError(err))
}

func TestFactory_UndecodableRowIsBackendError(t *testing.T) {
	f := query.NewFactory(narrowBackend{}, query.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	member := entity.NewQMember("member")

	_, err := query.SelectFrom(f, member).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, ir.IsBackendError(err), "got %v", err)
	assert.Contains(t, err.Error(), "decode row 0")
	assert.True(t, ir.IsArityMismatch(errors.Unwrap(err)), "the decode cause is kept")
}
