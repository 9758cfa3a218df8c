package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/store"
	"github.com/autobridge/autobridge/internal/store/memory"
	"github.com/autobridge/autobridge/pkg/logger"
)

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) (string, error) {
	return "", errors.New("model unavailable")
}

func newTestManager(t *testing.T, generateDelay time.Duration) (*Manager, *memory.Store, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	st := memory.New()
	m := NewManager(ManagerConfig{
		Store:     st,
		Catalog:   c,
		Generator: &SimulatedGenerator{Delay: generateDelay, Config: c.Connector.Config},
		Validator: &SimulatedValidator{Delay: time.Millisecond},
		Logger:    logger.Discard(),
	})
	t.Cleanup(m.Stop)
	return m, st, c
}

func dispatch(t *testing.T, m *Manager, id string, a Action) *Result {
	t.Helper()
	res, err := m.Dispatch(context.Background(), id, a)
	if err != nil {
		t.Fatalf("Dispatch(%s) error = %v", a.Kind(), err)
	}
	return res
}

func TestManagerFullWorkflow(t *testing.T) {
	ctx := context.Background()
	m, st, c := newTestManager(t, time.Millisecond)

	session, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.State.Phase != models.PhaseIdle {
		t.Fatalf("new session phase = %s", session.State.Phase)
	}

	sub := m.Broker().Subscribe(ctx, session.ID)
	defer m.Broker().Unsubscribe(sub)

	dispatch(t, m, session.ID, ApplyTemplate{Index: 0})
	res := dispatch(t, m, session.ID, Generate{})
	if !res.Applied || res.Session.State.Phase != models.PhaseGenerating {
		t.Fatalf("Generate: applied=%v phase=%s", res.Applied, res.Session.State.Phase)
	}
	m.Wait()

	got, err := m.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State.Phase != models.PhaseReady || got.State.GeneratedConfig != c.Connector.Config {
		t.Fatalf("after generation: phase=%s config=%q", got.State.Phase, got.State.GeneratedConfig)
	}

	dispatch(t, m, session.ID, Validate{})
	m.Wait()
	res = dispatch(t, m, session.ID, Deploy{})
	if !res.Applied {
		t.Fatalf("Deploy rejected: %v", res.Rejected)
	}
	if len(res.Session.State.DeploymentLogs) != catalog.DeploymentStepCount {
		t.Errorf("got %d log entries", len(res.Session.State.DeploymentLogs))
	}

	// The store sees the same state the manager returns.
	stored, err := st.Sessions().Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("store Get() error = %v", err)
	}
	if stored.Version != res.Session.Version || stored.State.Phase != models.PhaseDeployed {
		t.Errorf("stored version=%d phase=%s, want version=%d deployed", stored.Version, stored.State.Phase, res.Session.Version)
	}

	records, err := st.Deployments().ListBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(records) != 1 || records[0].Connector != c.Connector.Name || records[0].LogCount != catalog.DeploymentStepCount {
		t.Errorf("deployment records = %+v", records)
	}

	// Template, generate, completed, validate, completed, deploy.
	want := []string{"apply_template", "generate", "generate_completed", "validate", "validate_completed", "deploy"}
	for i, action := range want {
		select {
		case ev := <-sub.Ch:
			if ev.Action != action {
				t.Errorf("event %d action = %q, want %q", i, ev.Action, action)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d (%s)", i, action)
		}
	}
}

func TestManagerRejectsReentrantGenerate(t *testing.T) {
	m, _, _ := newTestManager(t, time.Hour)
	session, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dispatch(t, m, session.ID, SetPrompt{Prompt: "sync issues"})
	first := dispatch(t, m, session.ID, Generate{})
	second := dispatch(t, m, session.ID, Generate{})

	if !first.Applied {
		t.Fatalf("first Generate rejected: %v", first.Rejected)
	}
	if second.Applied || !errors.Is(second.Rejected, ErrBusy) {
		t.Fatalf("second Generate: applied=%v rejected=%v", second.Applied, second.Rejected)
	}
	if second.Session.State.Run != first.Session.State.Run {
		t.Errorf("rejected Generate changed run from %d to %d", first.Session.State.Run, second.Session.State.Run)
	}
}

func TestManagerStopAbortsInFlightTasks(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, time.Hour)
	session, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dispatch(t, m, session.ID, SetPrompt{Prompt: "sync issues"})
	dispatch(t, m, session.ID, Generate{})

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	stored, err := st.Sessions().Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("store Get() error = %v", err)
	}
	if stored.State.Phase != models.PhaseIdle {
		t.Errorf("phase after shutdown = %s, want idle", stored.State.Phase)
	}
	if stored.State.GeneratedConfig != "" {
		t.Errorf("config after abort = %q", stored.State.GeneratedConfig)
	}

	// New tasks are refused but the session is not left busy.
	_, err = m.Dispatch(ctx, session.ID, Generate{})
	if !errors.Is(err, ErrRunnerStopped) {
		t.Fatalf("Generate after stop error = %v, want ErrRunnerStopped", err)
	}
	got, _ := m.Get(ctx, session.ID)
	if got.State.Phase.Busy() {
		t.Errorf("session left busy after refused task: %s", got.State.Phase)
	}
}

func TestManagerFailedGenerationResumes(t *testing.T) {
	ctx := context.Background()
	c, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	m := NewManager(ManagerConfig{
		Store:     memory.New(),
		Catalog:   c,
		Generator: failingGenerator{},
		Validator: &SimulatedValidator{},
		Logger:    logger.Discard(),
	})
	defer m.Stop()

	session, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	dispatch(t, m, session.ID, SetPrompt{Prompt: "sync issues"})
	dispatch(t, m, session.ID, Generate{})
	m.Wait()

	got, err := m.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State.Phase != models.PhaseIdle {
		t.Errorf("phase = %s, want idle", got.State.Phase)
	}
}

func TestManagerRecoversOrphanedTask(t *testing.T) {
	ctx := context.Background()
	m, st, c := newTestManager(t, time.Millisecond)

	// A session persisted mid-validation by a process that no longer exists.
	orphan := &models.Session{ID: "orphan", State: models.NewBuilderState()}
	orphan.State.Prompt = "sync"
	orphan.State.GeneratedConfig = c.Connector.Config
	orphan.State.Phase = models.PhaseValidating
	orphan.State.ValidationStatus = models.ValidationValidating
	orphan.State.ResumePhase = models.PhaseReady
	orphan.State.Run = 4
	if err := st.Sessions().Create(ctx, orphan); err != nil {
		t.Fatalf("store Create() error = %v", err)
	}

	got, err := m.Get(ctx, "orphan")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State.Phase != models.PhaseReady || got.State.ValidationStatus != models.ValidationUnset {
		t.Errorf("recovered phase=%s status=%q, want ready", got.State.Phase, got.State.ValidationStatus)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t, time.Millisecond)

	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := m.Dispatch(context.Background(), "missing", Generate{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Dispatch() error = %v, want ErrNotFound", err)
	}
}

func TestManagerEvictsOnConcurrentModification(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, time.Millisecond)
	session, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Another writer saves behind the manager's back.
	other, _ := st.Sessions().Get(ctx, session.ID)
	other.State.Prompt = "from elsewhere"
	if err := st.Sessions().Save(ctx, other); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := m.Dispatch(ctx, session.ID, SetPrompt{Prompt: "mine"}); !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Dispatch() error = %v, want ErrConcurrentModification", err)
	}

	// The next access reloads the newer version.
	got, err := m.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State.Prompt != "from elsewhere" {
		t.Errorf("Prompt = %q after reload", got.State.Prompt)
	}
	res := dispatch(t, m, session.ID, SetPrompt{Prompt: "mine"})
	if !res.Applied || res.Session.State.Prompt != "mine" {
		t.Errorf("retry after reload: applied=%v prompt=%q", res.Applied, res.Session.State.Prompt)
	}
}
