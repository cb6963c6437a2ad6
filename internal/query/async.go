package query

import (
	"context"
)

// Future is the pending result of a terminal call started by Async.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Async runs a terminal call on its own goroutine:
//
//	users := query.Async(ctx, query.SelectFrom(f, member).Fetch)
//	...
//	members, err := users.Await(ctx)
//
// Cancelling ctx aborts the in-flight backend call. The builder behind call
// must not be used again until the future completes.
func Async[T any](ctx context.Context, call func(context.Context) (T, error)) *Future[T] {
	fut := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(fut.done)
		fut.val, fut.err = call(ctx)
	}()
	return fut
}

// Done is closed when the call has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the call finishes or ctx is done. Giving up on ctx
// does not cancel the call itself; cancel the context passed to Async.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
