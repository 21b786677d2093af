package executor

import (
	"context"
	"errors"
	"sync"
)

// Task is one unit of work run by the executor.
type Task func(ctx context.Context) error

// Executor runs task closures with a fixed concurrency ceiling. The ceiling
// is the system's backpressure mechanism toward the upstream processors: no
// matter how deep the ingestion queue gets, at most maxConcurrency tasks run
// at once.
type Executor struct {
	sem chan struct{}
}

func New(maxConcurrency int) *Executor {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Executor{sem: make(chan struct{}, maxConcurrency)}
}

// RunAll schedules every task, admitting at most the configured number
// concurrently, and returns once all admitted tasks have completed.
//
// Cancelling ctx stops admitting new tasks promptly; tasks already admitted
// are still awaited so no background work leaks. When onEach is non-nil it
// receives each task's result and the aggregate error only reflects
// admission failure; otherwise task errors are joined into the return value.
func (e *Executor) RunAll(ctx context.Context, tasks []Task, onEach func(error)) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	collect := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, task := range tasks {
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			collect(ctx.Err())
			wg.Wait()
			return errors.Join(errs...)
		}

		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			defer func() { <-e.sem }()

			err := task(ctx)
			if onEach != nil {
				onEach(err)
				return
			}
			collect(err)
		}(task)
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(errs...)
}
