//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// TaskGroup runs independent storage tasks concurrently. A failing task never
// cancels its siblings; every error is kept and returned by Wait.
type TaskGroup struct {
	// group schedules the goroutines.
	group errgroup.Group
	// mu guards errs.
	mu sync.Mutex
	// errs accumulates task errors.
	errs error
}

// NewTaskGroup returns a group running at most limit tasks at once.
// A limit of zero or less means unbounded.
func NewTaskGroup(limit int) *TaskGroup {
	tg := new(TaskGroup)
	if limit > 0 {
		tg.group.SetLimit(limit)
	}

	return tg
}

// Go schedules a task.
func (tg *TaskGroup) Go(task func() error) {
	tg.group.Go(func() error {
		if err := task(); err != nil {
			tg.mu.Lock()
			tg.errs = multierr.Append(tg.errs, err)
			tg.mu.Unlock()
		}

		return nil
	})
}

// Wait blocks until every task finished and returns all their errors combined.
func (tg *TaskGroup) Wait() error {
	_ = tg.group.Wait()

	tg.mu.Lock()
	defer tg.mu.Unlock()

	return tg.errs
}
