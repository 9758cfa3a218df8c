package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/events"
	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/store"
)

// ManagerConfig holds the dependencies of a Manager.
type ManagerConfig struct {
	Store     store.Store
	Broker    *events.Broker
	Catalog   *catalog.Catalog
	Generator Generator
	Validator Validator
	Logger    *slog.Logger
}

// Result is the outcome of a dispatch through the Manager.
type Result struct {
	Session *models.Session
	Applied bool
	// Rejected explains why the action was a no-op.
	Rejected error
}

// Manager keeps one Controller per builder session, persisting every applied
// transition and publishing it to the event broker.
type Manager struct {
	store     store.Store
	broker    *events.Broker
	catalog   *catalog.Catalog
	reducer   *Reducer
	generator Generator
	validator Validator
	runner    *Runner
	logger    *slog.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	broker := cfg.Broker
	if broker == nil {
		broker = events.NewBroker(logger)
	}
	return &Manager{
		store:       cfg.Store,
		broker:      broker,
		catalog:     cfg.Catalog,
		reducer:     NewReducer(cfg.Catalog),
		generator:   cfg.Generator,
		validator:   cfg.Validator,
		runner:      NewRunner(logger),
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// Broker returns the broker that receives session events.
func (m *Manager) Broker() *events.Broker {
	return m.broker
}

// Create starts a new session in the initial state.
func (m *Manager) Create(ctx context.Context) (*models.Session, error) {
	session := &models.Session{
		ID:    uuid.NewString(),
		State: models.NewBuilderState(),
	}
	if err := m.store.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	m.mu.Lock()
	m.controllers[session.ID] = m.newController(session)
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", session.ID)
	return session, nil
}

// Get returns a snapshot of a session.
func (m *Manager) Get(ctx context.Context, id string) (*models.Session, error) {
	c, err := m.controller(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Session(), nil
}

// Dispatch applies an action to a session.
func (m *Manager) Dispatch(ctx context.Context, id string, a Action) (*Result, error) {
	c, err := m.controller(ctx, id)
	if err != nil {
		return nil, err
	}

	session, out, err := c.Dispatch(ctx, a)
	if err != nil {
		if errors.Is(err, store.ErrConcurrentModification) {
			// Another writer owns this session now; reload on next access.
			m.evict(id)
		}
		return nil, err
	}

	return &Result{
		Session:  session,
		Applied:  out.Applied,
		Rejected: out.Rejected,
	}, nil
}

// RecentDeployments returns the newest deployment records across all sessions.
func (m *Manager) RecentDeployments(ctx context.Context, limit int) ([]*models.DeploymentRecord, error) {
	records, err := m.store.Deployments().ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}
	return records, nil
}

// Catalog returns the catalog the manager's sessions are built from.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Wait blocks until every in-flight task has delivered its completion.
func (m *Manager) Wait() {
	m.runner.Wait()
}

// Stop cancels in-flight tasks and waits for their aborts to be applied.
func (m *Manager) Stop() {
	m.runner.Stop()
}

// Ping reports whether the manager still accepts work.
func (m *Manager) Ping(ctx context.Context) error {
	if m.runner.Stopped() {
		return ErrRunnerStopped
	}
	return ctx.Err()
}

// Shutdown stops the manager within the deadline of ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Applied implements Observer: persist, record deployments, publish.
func (m *Manager) Applied(ctx context.Context, change Change) error {
	if err := change.Session.State.CheckInvariants(); err != nil {
		return fmt.Errorf("refusing inconsistent state: %w", err)
	}

	if err := m.store.Sessions().Save(ctx, change.Session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if change.Effect.Kind == EffectRecordDeployment {
		record := &models.DeploymentRecord{
			SessionID: change.Session.ID,
			Connector: m.catalog.Connector.Name,
			Version:   m.catalog.Connector.Version,
			Apps:      append([]string(nil), m.catalog.Connector.Apps...),
			LogCount:  len(change.Session.State.DeploymentLogs),
		}
		if err := m.store.Deployments().Create(ctx, record); err != nil {
			// The session already reflects the deployment; the record only feeds the dashboard.
			m.logger.Error("failed to record deployment", "session_id", change.Session.ID, "error", err)
		}
	}

	m.broker.Publish(&events.Event{
		SessionID: change.Session.ID,
		Action:    string(change.Action.Kind()),
		Version:   change.Session.Version,
		State:     change.Session.State.Clone(),
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// controller returns the cached controller for id, loading it from the store if needed.
func (m *Manager) controller(ctx context.Context, id string) (*Controller, error) {
	m.mu.Lock()
	c, ok := m.controllers[id]
	m.mu.Unlock()
	if ok {
		return c, nil
	}

	session, err := m.store.Sessions().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.controllers[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	c = m.newController(session)
	m.controllers[id] = c
	m.mu.Unlock()

	// A stored busy phase means the task died with a previous process.
	if session.State.Phase.Busy() {
		m.logger.Warn("recovering orphaned task", "session_id", id, "phase", session.State.Phase)
		if _, _, err := c.Dispatch(ctx, TaskAborted{Run: session.State.Run}); err != nil {
			m.evict(id)
			return nil, err
		}
	}
	return c, nil
}

func (m *Manager) newController(session *models.Session) *Controller {
	return NewController(session, ControllerDeps{
		Reducer:   m.reducer,
		Generator: m.generator,
		Validator: m.validator,
		Runner:    m.runner,
		Observer:  m,
		Logger:    m.logger,
	})
}

func (m *Manager) evict(id string) {
	m.mu.Lock()
	delete(m.controllers, id)
	m.mu.Unlock()
}
