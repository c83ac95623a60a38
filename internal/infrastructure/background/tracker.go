// Package background runs request-scoped side work that outlives the response
// but not the process.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tracker runs fire-and-forget tasks and lets shutdown wait for them.
// Implements domain.BackgroundRunner.
type Tracker struct {
	mu      sync.Mutex
	group   errgroup.Group
	closed  bool
	timeout time.Duration
	logger  *slog.Logger
	onDone  func(name string, err error)
}

// NewTracker creates a tracker whose tasks are each bounded by timeout.
// A non-positive timeout leaves tasks unbounded.
func NewTracker(timeout time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{timeout: timeout, logger: logger}
}

// OnDone registers a hook called after every task, e.g. for metrics.
func (t *Tracker) OnDone(fn func(name string, err error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDone = fn
}

// Go starts task without blocking. After Wait has been called, tasks run
// synchronously so that none is lost during shutdown.
func (t *Tracker) Go(ctx context.Context, name string, task func(ctx context.Context) error) {
	taskCtx := context.WithoutCancel(ctx)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.run(taskCtx, name, task)
		return
	}
	t.group.Go(func() error {
		t.run(taskCtx, name, task)
		return nil
	})
	t.mu.Unlock()
}

func (t *Tracker) run(ctx context.Context, name string, task func(ctx context.Context) error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("background task panicked: %v", r)
			}
		}()
		return task(ctx)
	}()

	if err != nil {
		t.logger.ErrorContext(ctx, "background task failed", "task", name, "error", err)
	} else {
		t.logger.DebugContext(ctx, "background task completed", "task", name)
	}

	t.mu.Lock()
	hook := t.onDone
	t.mu.Unlock()
	if hook != nil {
		hook(name, err)
	}
}

// Wait blocks until every scheduled task has finished or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = t.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
