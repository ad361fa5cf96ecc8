package export

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is the error of a Future that was cancelled before it resolved.
var ErrCancelled = errors.New("export: cancelled")

// Future is a single-assignment result. The first Resolve, Reject or Cancel
// wins; later calls are no-ops.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve completes the future with v. It reports whether this call settled it.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject completes the future with err.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

// Cancel rejects the future with ErrCancelled.
func (f *Future[T]) Cancel() bool {
	return f.Reject(ErrCancelled)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has completed.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future settles or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
