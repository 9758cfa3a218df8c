package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrRunnerStopped is returned when a task is submitted after Stop.
var ErrRunnerStopped = errors.New("task runner stopped")

// Task is one unit of simulated work. Run returns the action that completes it.
type Task struct {
	Name string
	Run  func(ctx context.Context) (Action, error)
	// Aborted is delivered instead of the result when Run fails or is cancelled.
	Aborted Action
}

// Runner runs tasks in the background and delivers their completion actions.
// Stop cancels every in-flight task; each cancelled task still delivers its
// Aborted action so the state machine leaves its busy phase.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// NewRunner creates a task runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Go starts t. deliver receives exactly one action: the task's result or t.Aborted.
// The context passed to deliver outlives Stop so completions can still be persisted.
func (r *Runner) Go(t Task, deliver func(ctx context.Context, a Action)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRunnerStopped
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		result, err := t.Run(r.ctx)
		deliverCtx := context.WithoutCancel(r.ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.logger.Warn("task failed", "task", t.Name, "error", err)
			} else {
				r.logger.Debug("task cancelled", "task", t.Name)
			}
			deliver(deliverCtx, t.Aborted)
			return
		}
		deliver(deliverCtx, result)
	}()
	return nil
}

// Wait blocks until every started task has delivered.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Stopped reports whether Stop has been called.
func (r *Runner) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Stop cancels in-flight tasks, refuses new ones, and waits for deliveries.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
