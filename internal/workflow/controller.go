package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/autobridge/autobridge/internal/models"
)

// Change is an applied transition handed to the Observer.
type Change struct {
	// Session is the controller's own copy; the observer may update Version and UpdatedAt.
	Session *models.Session
	Action  Action
	Effect  Effect
}

// Observer is told about every applied transition of a controller, in order.
// Returning an error rolls the transition back.
type Observer interface {
	Applied(ctx context.Context, change Change) error
}

// Controller owns the state of one builder session. Dispatches are serialised;
// tasks started by a transition feed their completion back through Dispatch.
type Controller struct {
	mu        sync.Mutex
	session   models.Session
	reducer   *Reducer
	generator Generator
	validator Validator
	runner    *Runner
	observer  Observer
	logger    *slog.Logger
}

// ControllerDeps holds the collaborators of a Controller.
type ControllerDeps struct {
	Reducer   *Reducer
	Generator Generator
	Validator Validator
	Runner    *Runner
	Observer  Observer
	Logger    *slog.Logger
}

// NewController creates a controller for session.
func NewController(session *models.Session, deps ControllerDeps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := *session
	s.State = session.State.Clone()
	return &Controller{
		session:   s,
		reducer:   deps.Reducer,
		generator: deps.Generator,
		validator: deps.Validator,
		runner:    deps.Runner,
		observer:  deps.Observer,
		logger:    logger.With("session_id", session.ID),
	}
}

// Session returns a snapshot of the session.
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// State returns a snapshot of the builder state.
func (c *Controller) State() models.BuilderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State.Clone()
}

// Dispatch reduces a against the current state. A rejected action returns the
// unchanged session and an Outcome carrying the reason; err reports only
// observer or task start failures, in which case the state is rolled back.
func (c *Controller) Dispatch(ctx context.Context, a Action) (*models.Session, Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.reducer.Reduce(c.session.State, a)
	if !out.Applied {
		c.logger.Debug("action rejected", "action", a.Kind(), "phase", c.session.State.Phase, "reason", out.Rejected)
		return c.snapshot(), out, nil
	}

	previous := c.session
	c.session.State = out.State

	if c.observer != nil {
		if err := c.observer.Applied(ctx, Change{Session: &c.session, Action: a, Effect: out.Effect}); err != nil {
			c.session = previous
			return c.snapshot(), out, fmt.Errorf("applying %s: %w", a.Kind(), err)
		}
	}

	if err := c.start(out.Effect); err != nil {
		// The transition is persisted; leave the busy phase through the normal path.
		c.logger.Error("failed to start task", "effect", out.Effect.Kind, "error", err)
		return c.snapshot(), out, err
	}

	c.logger.Info("transition applied",
		"action", a.Kind(),
		"phase", c.session.State.Phase,
		"run", c.session.State.Run,
	)
	return c.snapshot(), out, nil
}

// start launches the task requested by an effect.
func (c *Controller) start(e Effect) error {
	var task Task
	switch e.Kind {
	case EffectGenerate:
		prompt, run := e.Prompt, e.Run
		task = Task{
			Name: "generate",
			Run: func(ctx context.Context) (Action, error) {
				config, err := c.generator.Generate(ctx, prompt)
				if err != nil {
					return nil, err
				}
				return GenerateCompleted{Run: run, Config: config}, nil
			},
			Aborted: TaskAborted{Run: run},
		}
	case EffectValidate:
		config, run := e.Config, e.Run
		task = Task{
			Name: "validate",
			Run: func(ctx context.Context) (Action, error) {
				if err := c.validator.Validate(ctx, config); err != nil {
					return nil, err
				}
				return ValidateCompleted{Run: run}, nil
			},
			Aborted: TaskAborted{Run: run},
		}
	default:
		return nil
	}

	err := c.runner.Go(task, c.deliver)
	if err != nil {
		// Runner is gone; abort synchronously so the session is not stuck busy.
		out := c.reducer.Reduce(c.session.State, task.Aborted)
		if out.Applied {
			c.session.State = out.State
			if c.observer != nil {
				_ = c.observer.Applied(context.Background(), Change{Session: &c.session, Action: task.Aborted})
			}
		}
	}
	return err
}

func (c *Controller) deliver(ctx context.Context, a Action) {
	if _, out, err := c.Dispatch(ctx, a); err != nil {
		c.logger.Error("failed to apply task completion", "action", a.Kind(), "error", err)
	} else if !out.Applied {
		c.logger.Debug("task completion ignored", "action", a.Kind(), "reason", out.Rejected)
	}
}

func (c *Controller) snapshot() *models.Session {
	s := c.session
	s.State = c.session.State.Clone()
	return &s
}
