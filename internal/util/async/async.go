// Package async provides utilities for bounded parallel task execution.
//
// This package contains generic helpers for running multiple operations
// concurrently with a concurrency limit, collecting per-task results in
// input order. It's used by the batch orchestrator to fan out clone
// operations without saturating hypervisor storage I/O.
package async

import (
	"context"
	"sync"
)

// Task represents an asynchronous operation producing a result of type R.
type Task[R any] struct {
	Name string
	Func func(context.Context) R
}

// RunBounded executes tasks with at most limit running concurrently and
// returns their results in input order. A limit <= 0 means unbounded.
//
// Cancellation semantics: once ctx is done, no further tasks are started.
// Tasks already running are not interrupted here; they observe ctx (or a
// derived deadline) themselves. Slots for tasks that were never started are
// filled by calling onSkipped, so callers always receive exactly one result
// per task.
func RunBounded[R any](ctx context.Context, tasks []Task[R], limit int, onSkipped func(Task[R]) R) []R {
	results := make([]R, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, task := range tasks {
		// Stop dispatching once the batch is cancelled. The explicit check
		// avoids racing a free semaphore slot against a done context.
		if ctx.Err() != nil {
			results[i] = onSkipped(task)
			continue
		}
		select {
		case <-ctx.Done():
			results[i] = onSkipped(task)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		i, task := i, task
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = task.Func(ctx)
		}()
	}

	wg.Wait()
	return results
}
