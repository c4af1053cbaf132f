// Package scheduler wraps robfig/cron as a cancellable handle for periodic jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Handle owns one cron instance. Jobs registered on it run until Stop.
// A stopped Handle cannot be restarted; create a new one instead.
type Handle struct {
	c       *cron.Cron
	mu      sync.Mutex
	started bool
	stopped bool
	done    context.Context
}

// New creates a Handle with second-level cron specs. A job that is still
// running when its next tick fires is skipped.
func New() *Handle {
	logger := slogLogger{}
	return &Handle{
		c: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Every runs fn every d. cron rounds d down to whole seconds.
func (h *Handle) Every(d time.Duration, fn func()) error {
	if d < time.Second {
		return fmt.Errorf("scheduler: interval %s is shorter than 1s", d)
	}
	h.c.Schedule(cron.Every(d), cron.FuncJob(fn))
	return nil
}

// AddCron runs fn on a six-field cron spec (seconds first).
func (h *Handle) AddCron(spec string, fn func()) error {
	if _, err := h.c.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("scheduler: register %q: %w", spec, err)
	}
	return nil
}

// Start begins dispatching jobs. It is a no-op after Stop.
func (h *Handle) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started || h.stopped {
		return
	}
	h.started = true
	h.c.Start()
}

// Stop halts scheduling. It does not wait for running jobs, so a job may
// stop its own handle. Use Done to wait for them.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	h.done = h.c.Stop()
}

// Done returns a context that is done once Stop was called and every
// running job has returned. It returns nil before Stop.
func (h *Handle) Done() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// slogLogger routes cron's own logs to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
