// Package memory provides an in-process implementation of the store interfaces.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/store"
)

// Store keeps sessions and deployment records in maps guarded by one mutex.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*models.Session
	deployments []*models.DeploymentRecord

	sessionStore    *SessionStore
	deploymentStore *DeploymentStore
}

// New creates an empty memory store.
func New() *Store {
	s := &Store{
		sessions: make(map[string]*models.Session),
	}
	s.sessionStore = &SessionStore{s: s}
	s.deploymentStore = &DeploymentStore{s: s}
	return s
}

// Sessions returns the SessionStore.
func (s *Store) Sessions() store.SessionStore {
	return s.sessionStore
}

// Deployments returns the DeploymentStore.
func (s *Store) Deployments() store.DeploymentStore {
	return s.deploymentStore
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// SessionStore implements store.SessionStore.
type SessionStore struct {
	s *Store
}

// Create stores a new session.
func (ss *SessionStore) Create(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if _, exists := ss.s.sessions[session.ID]; exists {
		return fmt.Errorf("creating session %s: %w", session.ID, store.ErrDuplicateKey)
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.Version = 1

	stored, err := copySession(session)
	if err != nil {
		return err
	}
	ss.s.sessions[session.ID] = stored
	return nil
}

// Get retrieves a session by ID.
func (ss *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	stored, ok := ss.s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copySession(stored)
}

// Save writes the session if its version matches.
func (ss *SessionStore) Save(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	stored, ok := ss.s.sessions[session.ID]
	if !ok {
		return store.ErrNotFound
	}
	if stored.Version != session.Version {
		return store.ErrConcurrentModification
	}

	session.Version++
	session.UpdatedAt = time.Now().UTC()

	updated, err := copySession(session)
	if err != nil {
		session.Version--
		return err
	}
	updated.CreatedAt = stored.CreatedAt
	ss.s.sessions[session.ID] = updated
	return nil
}

// Delete removes a session and its deployment records.
func (ss *SessionStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if _, ok := ss.s.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(ss.s.sessions, id)

	kept := ss.s.deployments[:0]
	for _, d := range ss.s.deployments {
		if d.SessionID != id {
			kept = append(kept, d)
		}
	}
	ss.s.deployments = kept
	return nil
}

// DeploymentStore implements store.DeploymentStore.
type DeploymentStore struct {
	s *Store
}

// Create stores a deployment record.
func (ds *DeploymentStore) Create(ctx context.Context, record *models.DeploymentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	ds.s.mu.Lock()
	defer ds.s.mu.Unlock()

	if _, ok := ds.s.sessions[record.SessionID]; !ok {
		return fmt.Errorf("recording deployment for session %s: %w", record.SessionID, store.ErrNotFound)
	}
	for _, d := range ds.s.deployments {
		if d.ID == record.ID {
			return fmt.Errorf("recording deployment %s: %w", record.ID, store.ErrDuplicateKey)
		}
	}

	ds.s.deployments = append(ds.s.deployments, copyRecord(record))
	return nil
}

// ListRecent retrieves the newest records, newest first.
func (ds *DeploymentStore) ListRecent(ctx context.Context, limit int) ([]*models.DeploymentRecord, error) {
	return ds.list(ctx, limit, func(*models.DeploymentRecord) bool { return true })
}

// ListBySession retrieves the records of one session, newest first.
func (ds *DeploymentStore) ListBySession(ctx context.Context, sessionID string) ([]*models.DeploymentRecord, error) {
	return ds.list(ctx, 0, func(d *models.DeploymentRecord) bool { return d.SessionID == sessionID })
}

func (ds *DeploymentStore) list(ctx context.Context, limit int, keep func(*models.DeploymentRecord) bool) ([]*models.DeploymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds.s.mu.RLock()
	defer ds.s.mu.RUnlock()

	var out []*models.DeploymentRecord
	for i := len(ds.s.deployments) - 1; i >= 0; i-- {
		if d := ds.s.deployments[i]; keep(d) {
			out = append(out, copyRecord(d))
		}
	}

	// Later inserts win ties between records created in the same instant.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// copySession deep-copies through JSON, the same encoding the SQL store persists.
func copySession(s *models.Session) (*models.Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	var out models.Session
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &out, nil
}

func copyRecord(d *models.DeploymentRecord) *models.DeploymentRecord {
	c := *d
	c.Apps = append([]string(nil), d.Apps...)
	return &c
}
