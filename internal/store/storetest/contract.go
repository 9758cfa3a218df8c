// Package storetest provides contract tests for [store.Store] implementations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/store"
)

// Factory creates a fresh, empty [store.Store] for each test.
type Factory func(t *testing.T) store.Store

// Run exercises the [store.Store] contract.
func Run(t *testing.T, factory Factory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		st := factory(t)
		ctx := context.Background()

		session := newSession()
		session.State.Prompt = "Sync Jira issues to Slack"
		if err := st.Sessions().Create(ctx, session); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if session.Version != 1 {
			t.Errorf("Version after Create = %d, want 1", session.Version)
		}
		if session.CreatedAt.IsZero() || session.UpdatedAt.IsZero() {
			t.Error("timestamps not set by Create")
		}

		got, err := st.Sessions().Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.State.Prompt != session.State.Prompt || got.State.Phase != models.PhaseIdle {
			t.Errorf("Get returned %+v", got.State)
		}
		if got.State.DeploymentLogs == nil {
			t.Error("DeploymentLogs decoded as nil, want empty")
		}
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		st := factory(t)
		ctx := context.Background()

		session := newSession()
		if err := st.Sessions().Create(ctx, session); err != nil {
			t.Fatalf("Create: %v", err)
		}
		dup := newSession()
		dup.ID = session.ID
		if err := st.Sessions().Create(ctx, dup); !errors.Is(err, store.ErrDuplicateKey) {
			t.Fatalf("second Create: got %v, want ErrDuplicateKey", err)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		st := factory(t)
		_, err := st.Sessions().Get(context.Background(), uuid.NewString())
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get: got %v, want ErrNotFound", err)
		}
	})

	t.Run("SaveRoundTripsState", func(t *testing.T) {
		st := factory(t)
		ctx := context.Background()

		session := newSession()
		if err := st.Sessions().Create(ctx, session); err != nil {
			t.Fatalf("Create: %v", err)
		}

		session.State = deployedState()
		if err := st.Sessions().Save(ctx, session); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if session.Version != 2 {
			t.Errorf("Version after Save = %d, want 2", session.Version)
		}

		got, err := st.Sessions().Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("stored Version = %d, want 2", got.Version)
		}
		want := session.State
		if got.State.Phase != want.Phase ||
			got.State.GeneratedConfig != want.GeneratedConfig ||
			got.State.ValidationStatus != want.ValidationStatus ||
			got.State.ActiveTab != want.ActiveTab ||
			got.State.Run != want.Run {
			t.Errorf("state = %+v, want %+v", got.State, want)
		}
		if len(got.State.DeploymentLogs) != len(want.DeploymentLogs) {
			t.Fatalf("DeploymentLogs len = %d, want %d", len(got.State.DeploymentLogs), len(want.DeploymentLogs))
		}
		for i := range want.DeploymentLogs {
			if got.State.DeploymentLogs[i] != want.DeploymentLogs[i] {
				t.Errorf("DeploymentLogs[%d] = %+v, want %+v", i, got.State.DeploymentLogs[i], want.DeploymentLogs[i])
			}
		}
	})

	t.Run("SaveDetectsStaleVersion", func(t *testing.T) {
		st := factory(t)
		ctx := context.Background()

		session := newSession()
		if err := st.Sessions().Create(ctx, session); err != nil {
			t.Fatalf("Create: %v", err)
		}

		first, _ := st.Sessions().Get(ctx, session.ID)
		second, _ := st.Sessions().Get(ctx, session.ID)

		first.State.Prompt = "first"
		if err := st.Sessions().Save(ctx, first); err != nil {
			t.Fatalf("first Save: %v", err)
		}

		second.State.Prompt = "second"
		if err := st.Sessions().Save(ctx, second); !errors.Is(err, store.ErrConcurrentModification) {
			t.Fatalf("second Save: got %v, want ErrConcurrentModification", err)
		}
		if second.Version != 1 {
			t.Errorf("failed Save changed Version to %d", second.Version)
		}

		got, _ := st.Sessions().Get(ctx, session.ID)
		if got.State.Prompt != "first" {
			t.Errorf("Prompt = %q, want first", got.State.Prompt)
		}
	})

	t.Run("SaveNotFound", func(t *testing.T) {
		st := factory(t)
		session := newSession()
		session.Version = 1
		if err := st.Sessions().Save(context.Background(), session); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Save: got %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		st := factory(t)
		ctx := context.Background()

		session := newSession()
		if err := st.Sessions().Create(ctx, session); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := st.Deployments().Create(ctx, newRecord(session.ID, time.Now().UTC())); err != nil {
			t.Fatalf("Deployments().Create: %v", err)
		}

		if err := st.Sessions().Delete(ctx, session.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := st.Sessions().Get(ctx, session.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get after Delete: got %v, want ErrNotFound", err)
		}
		records, err := st.Deployments().ListBySession(ctx, session.ID)
		if err != nil {
			t.Fatalf("ListBySession: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("records after Delete = %d, want 0", len(records))
		}
		if err := st.Sessions().Delete(ctx, session.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("second Delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("DeploymentsNewestFirst", func(t *testing.T) {
		st := factory(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

		a, b := newSession(), newSession()
		for _, s := range []*models.Session{a, b} {
			if err := st.Sessions().Create(ctx, s); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		records := []*models.DeploymentRecord{
			newRecord(a.ID, base),
			newRecord(b.ID, base.Add(time.Minute)),
			newRecord(a.ID, base.Add(2*time.Minute)),
		}
		for _, r := range records {
			if err := st.Deployments().Create(ctx, r); err != nil {
				t.Fatalf("Deployments().Create: %v", err)
			}
		}

		recent, err := st.Deployments().ListRecent(ctx, 2)
		if err != nil {
			t.Fatalf("ListRecent: %v", err)
		}
		if len(recent) != 2 || recent[0].ID != records[2].ID || recent[1].ID != records[1].ID {
			t.Errorf("ListRecent returned %v", ids(recent))
		}

		mine, err := st.Deployments().ListBySession(ctx, a.ID)
		if err != nil {
			t.Fatalf("ListBySession: %v", err)
		}
		if len(mine) != 2 || mine[0].ID != records[2].ID || mine[1].ID != records[0].ID {
			t.Errorf("ListBySession returned %v", ids(mine))
		}
		if len(mine[0].Apps) != 2 || mine[0].Apps[0] != "jira" {
			t.Errorf("Apps = %v", mine[0].Apps)
		}
	})

	t.Run("DeploymentForMissingSession", func(t *testing.T) {
		st := factory(t)
		err := st.Deployments().Create(context.Background(), newRecord(uuid.NewString(), time.Now().UTC()))
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Create: got %v, want ErrNotFound", err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		st := factory(t)
		if err := st.Ping(context.Background()); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}

func newSession() *models.Session {
	return &models.Session{
		ID:    uuid.NewString(),
		State: models.NewBuilderState(),
	}
}

func deployedState() models.BuilderState {
	s := models.NewBuilderState()
	s.Prompt = "Sync Jira issues to Slack"
	s.GeneratedConfig = "connector:\n  name: slack_jira_connector\n"
	s.Phase = models.PhaseDeployed
	s.ValidationStatus = models.ValidationSuccess
	s.ActiveTab = models.TabLogs
	s.Run = 2
	s.DeploymentLogs = []models.DeploymentLogEntry{
		{Time: "00:00", Message: "Starting deployment...", Severity: models.SeverityInfo},
		{Time: "00:04", Message: "Connector is live", Severity: models.SeveritySuccess},
	}
	return s
}

func newRecord(sessionID string, at time.Time) *models.DeploymentRecord {
	return &models.DeploymentRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Connector: "slack_jira_connector",
		Version:   "1.0.0",
		Apps:      []string{"jira", "slack"},
		LogCount:  5,
		CreatedAt: at,
	}
}

func ids(records []*models.DeploymentRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
