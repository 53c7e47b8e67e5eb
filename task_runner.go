package bitrepair

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// TaskRunner bounds the number of concurrent goroutines used to search
// blocks in parallel during repair/restore. Callers collect per-block
// results keyed by block index and re-serialize them in ascending order
// before writing instruction records, since this runner makes no ordering
// guarantee about completion order.
type TaskRunner struct {
	maxThreadCount int
	eg             *errgroup.Group
	limiterChan    chan bool
	context        context.Context
}

// NewTaskRunner creates a task runner that allows at most maxThreadCount
// tasks to run concurrently.
func NewTaskRunner(ctx context.Context, maxThreadCount int) *TaskRunner {
	eg, ctx2 := errgroup.WithContext(ctx)
	return &TaskRunner{
		maxThreadCount: maxThreadCount,
		limiterChan:    make(chan bool, maxThreadCount),
		eg:             eg,
		context:        ctx2,
	}
}

// GetContext returns the runner's context, cancelled as soon as any task
// returns an error.
func (tr *TaskRunner) GetContext() context.Context {
	return tr.context
}

// Go spins up a goroutine to run task, blocking until a thread slot is
// free if the runner is already at maxThreadCount.
func (tr *TaskRunner) Go(task func() error) {
	t := func() error {
		// Free up this thread slot, whether or not the task failed.
		defer func() { <-tr.limiterChan }()
		return task()
	}
	// Occupy a thread slot.
	tr.limiterChan <- true
	tr.eg.Go(t)
}

// GoEach dispatches one task per index in [0, n), each bounded by the same
// maxThreadCount, and captures i correctly per task — every call site in
// repair and restore fans out over a slice of per-block work this way, so
// this spares each of them the idx := idx capture boilerplate Go's closure
// semantics would otherwise require.
func (tr *TaskRunner) GoEach(n int, task func(i int) error) {
	for i := 0; i < n; i++ {
		i := i
		tr.Go(func() error {
			return task(i)
		})
	}
}

// Wait blocks until every dispatched task has completed, returning the
// first error encountered (if any).
func (tr *TaskRunner) Wait() error {
	defer close(tr.limiterChan)
	return tr.eg.Wait()
}
