// Package tasks runs fire-and-forget side effects, such as cache writes,
// outside the request that scheduled them.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "prepcost/internal/log"
	"prepcost/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Task identifies a scheduled background job.
type Task struct {
	ID   uuid.UUID
	Name string
}

// Failure is delivered on the runner's error channel when a task fails.
type Failure struct {
	Task Task
	Err  error
}

// Runner executes tasks on their own goroutines. Failures are logged,
// counted and offered on Errors; the scheduling caller never waits.
type Runner struct {
	wg        sync.WaitGroup
	errs      chan Failure
	metrics   *metrics.Registry
	timeout   time.Duration
	attempted atomic.Int64
	failed    atomic.Int64
}

// NewRunner builds a Runner whose error channel buffers queueSize failures.
// Failures beyond the buffer are dropped after being logged.
func NewRunner(queueSize int, reg *metrics.Registry) *Runner {
	if queueSize < 0 {
		queueSize = 0
	}
	return &Runner{
		errs:    make(chan Failure, queueSize),
		metrics: reg,
		timeout: defaultTimeout,
	}
}

// Go schedules fn and returns immediately. fn receives a context that keeps
// the caller's values but not its cancellation.
func (r *Runner) Go(ctx context.Context, name string, fn func(context.Context) error) Task {
	task := Task{ID: uuid.New(), Name: name}
	r.attempted.Add(1)
	r.wg.Add(1)

	detached := context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()

		taskCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()

		err := run(taskCtx, fn)
		if err == nil {
			r.metrics.CacheWrite(name, "ok")
			applog.Debug(taskCtx, "background task finished", "task", name, "task_id", task.ID)
			return
		}

		r.failed.Add(1)
		applog.Error(taskCtx, "background task failed", "task", name, "task_id", task.ID, "error", err)
		select {
		case r.errs <- Failure{Task: task, Err: err}:
			r.metrics.CacheWrite(name, "error")
		default:
			r.metrics.CacheWrite(name, "dropped")
		}
	}()

	return task
}

func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(ctx)
}

// Errors exposes task failures. Reading is optional.
func (r *Runner) Errors() <-chan Failure {
	return r.errs
}

// Wait blocks until every scheduled task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Attempted reports how many tasks have been scheduled.
func (r *Runner) Attempted() int64 {
	return r.attempted.Load()
}

// Failed reports how many tasks have returned an error.
func (r *Runner) Failed() int64 {
	return r.failed.Load()
}
