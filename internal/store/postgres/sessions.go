package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/store"
)

// SessionStore implements store.SessionStore using PostgreSQL.
type SessionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Create creates a new builder session.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	stateJSON, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	query := `
		INSERT INTO builder_sessions (id, phase, state, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		RETURNING version, created_at, updated_at`

	err = s.db.QueryRowContext(ctx, query,
		session.ID,
		string(session.State.Phase),
		stateJSON,
		time.Now().UTC(),
	).Scan(&session.Version, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("creating session %s: %w", session.ID, store.ErrDuplicateKey)
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// Get retrieves a builder session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}

	query := `
		SELECT id, state, version, created_at, updated_at
		FROM builder_sessions
		WHERE id = $1`

	session := &models.Session{}
	var stateJSON []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&stateJSON,
		&session.Version,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if err := json.Unmarshal(stateJSON, &session.State); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}
	if session.State.DeploymentLogs == nil {
		session.State.DeploymentLogs = []models.DeploymentLogEntry{}
	}

	return session, nil
}

// Save writes the session state using optimistic locking on version.
func (s *SessionStore) Save(ctx context.Context, session *models.Session) error {
	stateJSON, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	query := `
		UPDATE builder_sessions
		SET phase = $1, state = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5
		RETURNING version, updated_at`

	var version int
	var updatedAt time.Time
	err = s.db.QueryRowContext(ctx, query,
		string(session.State.Phase),
		stateJSON,
		time.Now().UTC(),
		session.ID,
		session.Version,
	).Scan(&version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.missOrConflict(ctx, session.ID)
		}
		return fmt.Errorf("updating session: %w", err)
	}

	session.Version = version
	session.UpdatedAt = updatedAt
	return nil
}

// missOrConflict tells a missing row apart from a version mismatch.
func (s *SessionStore) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM builder_sessions WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking session existence: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	s.logger.Debug("optimistic lock conflict", "session_id", id)
	return store.ErrConcurrentModification
}

// Delete removes a builder session. Deployment records cascade.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM builder_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	return nil
}
