// Package schedule runs a function on a fixed interval until stopped.
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a cancellable periodic job. The zero value is ready to use. A Task
// may be started again after it has been stopped.
type Task struct {
	name string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTask returns a named task. The name only labels log lines.
func NewTask(name string) *Task {
	return &Task{name: name}
}

// Start invokes fn every interval until Stop is called or ctx is done. The
// first invocation happens after one interval. Start returns false without
// doing anything if the task is already running.
func (t *Task) Start(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) bool {
	if interval <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				fn(runCtx)
			}
		}
	}()

	zap.L().Debug("schedule: task started",
		zap.String("task", t.name),
		zap.Duration("interval", interval),
	)
	return true
}

// Stop cancels the task and waits for an in-flight invocation of fn to
// return. It is safe to call repeatedly, concurrently, and before Start. It
// must not be called from inside fn.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	zap.L().Debug("schedule: task stopped", zap.String("task", t.name))
}

// Running reports whether the task is started.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}
