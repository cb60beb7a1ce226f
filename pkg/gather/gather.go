// Package gather provides a fan-out helper that runs one task per item and
// collects per-slot results.
package gather

import (
	"context"
	"sync"
)

// Result holds the outcome of a single task.
type Result[R any] struct {
	Value R
	Err   error
}

// Map runs fn once per item, each in its own goroutine, and waits for all of
// them to finish. Each task writes only to its own result slot; a failing task
// marks its slot with the error and does not cancel its siblings. Tasks are
// expected to honor ctx for their own timeouts.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	out := make([]Result[R], len(items))

	wg := sync.WaitGroup{}
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			v, err := fn(ctx, item)
			out[i] = Result[R]{Value: v, Err: err}
		}(i, item)
	}
	wg.Wait()

	return out
}
