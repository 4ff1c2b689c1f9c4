// Package worker provides a bounded worker pool for running independent
// per-item operations concurrently.
//
// The pool guarantees a full barrier: Run returns only after every item has
// either completed or been marked as cancelled, so callers can treat the
// returned results as a consistent snapshot before starting the next phase.
package worker

import (
	"context"
	"sync"
)

// DefaultConcurrency is the pool size used when callers pass a
// non-positive concurrency value.
const DefaultConcurrency = 5

// Result pairs an input item with the error its task produced, if any.
type Result[T any] struct {
	Item T
	Err  error
}

// Run executes fn for every item using at most concurrency goroutines.
// Results are returned in input order. Items whose task never started
// because the context was cancelled carry ctx.Err().
//
// fn must not retain references to shared mutable state; each result slot
// is written by exactly one goroutine.
func Run[T any](ctx context.Context, concurrency int, items []T, fn func(context.Context, T) error) []Result[T] {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result[T], len(items))
	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, item := range items {
		results[i].Item = item

		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(i int, item T) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			select {
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			default:
			}

			results[i].Err = fn(ctx, item)
		}(i, item)
	}

	wg.Wait()
	return results
}
