// Package task provides one-shot background execution.
//
// The pattern: submit a blocking unit of work, get back a handle, observe
// exactly one terminal result (value or typed error). One goroutine per
// submission, no pool and no admission control; callers that need a
// concurrency limit layer one on top.

package task

import (
	"context"

	"github.com/google/uuid"
)

// Result is the single terminal outcome of a task.
type Result[T any] struct {
	Value T
	Err   error
}

// Task is a handle to one background unit of work.
type Task[T any] struct {
	id   string
	done chan Result[T]
}

// Run starts fn on its own goroutine and returns a handle to its result.
// fn receives ctx and should honor its cancellation, but a blocking call
// that ignores ctx simply keeps its goroutine occupied until it returns;
// the waiter can still give up via Wait's context.
func Run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{
		id: uuid.NewString(),
		// Buffered so the worker never blocks delivering its one result,
		// even if nobody waits.
		done: make(chan Result[T], 1),
	}

	go func() {
		value, err := fn(ctx)
		t.done <- Result[T]{Value: value, Err: err}
	}()

	return t
}

// ID returns the unique id assigned to this task.
func (t *Task[T]) ID() string {
	return t.id
}

// Wait blocks until the task delivers its result or ctx is done, whichever
// comes first. Exactly one result is ever delivered; calling Wait again
// after the result was consumed blocks until ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case result := <-t.done:
		return result.Value, result.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done exposes the result channel for select-based callers.
func (t *Task[T]) Done() <-chan Result[T] {
	return t.done
}
