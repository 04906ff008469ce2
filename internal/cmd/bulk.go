package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent requests
const DefaultConcurrency = 5

// BulkResult is the outcome of one input of a bulk operation.
type BulkResult[T any] struct {
	Index int
	Input string
	Data  T
	Err   error
	// Skipped is set when the context ended before the input was processed.
	Skipped bool
}

// runBulkOperation runs operation for every input with bounded parallelism.
// Results are returned in input order; individual failures do not stop the
// others.
func runBulkOperation[T any](
	ctx context.Context,
	inputs []string,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	operation func(ctx context.Context, input string) (T, error),
) []BulkResult[T] {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	results := make([]BulkResult[T], len(inputs))
	for i, input := range inputs {
		results[i] = BulkResult[T]{Index: i, Input: input, Skipped: true}
	}

	sem := semaphore.NewWeighted(concurrency)
	var mu sync.Mutex
	var done int64
	total := len(inputs)

	g, ctx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			if ctx.Err() != nil {
				return nil
			}

			data, err := operation(ctx, input)
			results[i] = BulkResult[T]{Index: i, Input: input, Data: data, Err: err}

			if progress {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d", current, total)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if progress && total > 0 {
		_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d\n", atomic.LoadInt64(&done), total)
	}
	return results
}

// countResults returns success and failure counts from bulk results.
// Skipped inputs count as failures.
func countResults[T any](results []BulkResult[T]) (success, failure int) {
	for _, r := range results {
		if r.Err == nil && !r.Skipped {
			success++
		} else {
			failure++
		}
	}
	return success, failure
}
