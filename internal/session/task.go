package session

import (
	"context"
	"sync/atomic"

	"pindl/internal/domain"
)

// Outcome is what a submission resolved to.
type Outcome struct {
	Result *domain.DownloadResult
	// Entry is the history entry added for a successful result.
	Entry *domain.HistoryEntry
	Err   error
	// Cancelled is true when the task was cancelled before it resolved;
	// such an outcome was not applied to the machine.
	Cancelled bool
}

// Task is a handle on one submission. Nothing in the machine cancels tasks on
// its own: a newer submission does not abort an older one.
type Task struct {
	url       string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled atomic.Bool
	outcome   Outcome
}

func newTask(parent context.Context, url string) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		url:    url,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// resolvedTask returns a task that is already finished with outcome.
func resolvedTask(url string, outcome Outcome) *Task {
	t := &Task{url: url, cancel: func() {}, done: make(chan struct{}), outcome: outcome}
	close(t.done)
	return t
}

// URL is the trimmed URL that was submitted.
func (t *Task) URL() string { return t.url }

// Done is closed once the task has resolved.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel abandons the extraction. Its result, if any arrives, is dropped.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Wait blocks until the task resolves or ctx is done.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (t *Task) finish(outcome Outcome) {
	t.outcome = outcome
	t.cancel()
	close(t.done)
}
