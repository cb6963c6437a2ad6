package query_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helloworldkim/querydsl/internal/entity"
	"github.com/helloworldkim/querydsl/internal/ir"
	"github.com/helloworldkim/querydsl/internal/query"
)

func TestAsync(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	members := query.Async(ctx, query.SelectFrom(e.f, e.member).Fetch)
	total := query.Async(ctx, query.SelectFrom(e.f, e.member).FetchCount)

	got, err := members.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2", "member3", "member4"}, usernames(got))

	n, err := total.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	select {
	case <-members.Done():
	default:
		t.Fatal("Done is open after Await returned")
	}
}

func TestAsync_CancelledContext(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := query.Async(ctx, query.SelectFrom(e.f, e.member).Fetch).Await(context.Background())
	require.Error(t, err)
	assert.True(t, ir.IsBackendError(err), "got %v", err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwait_GivesUpWithItsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	fut := query.Async(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fut.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackendFailure_IsWrapped(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Close())

	tests := []struct {
		name string
		run  func() error
	}{
		{"fetch", func() error {
			_, err := query.SelectFrom(e.f, e.member).Fetch(context.Background())
			return err
		}},
		{"count", func() error {
			_, err := query.SelectFrom(e.f, e.member).FetchCount(context.Background())
			return err
		}},
		{"bulk", func() error {
			_, err := e.f.Delete(e.member).All().Execute(context.Background())
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)

			var qe *ir.QueryError
			require.True(t, errors.As(err, &qe))
			assert.Equal(t, ir.ErrCodeBackendExecution, qe.Code)
			assert.NotNil(t, errors.Unwrap(err), "the backend cause is kept")
		})
	}

	// Direct store calls are not query terminals and are not wrapped.
	err := e.store.PersistMember(context.Background(), entity.NewMember("late", 1))
	require.Error(t, err)
	assert.False(t, ir.IsBackendError(err))

	stmts := e.rec.Statements()
	require.Len(t, stmts, 3)
	for _, st := range stmts {
		assert.Error(t, st.Err)
	}
}
