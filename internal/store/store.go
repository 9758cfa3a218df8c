// Package store provides persistence interfaces for builder sessions and deployment records.
package store

import (
	"context"
	"errors"

	"github.com/autobridge/autobridge/internal/models"
)

// Common store errors.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateKey is returned when creating a resource whose ID already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConcurrentModification is returned when an optimistic locking conflict is detected.
	// This occurs when the version field doesn't match during a save.
	ErrConcurrentModification = errors.New("resource was modified by another request")
)

// SessionStore defines operations for builder sessions.
type SessionStore interface {
	// Create stores a new session. CreatedAt, UpdatedAt and Version are set on success.
	Create(ctx context.Context, session *models.Session) error
	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Save writes the session state if session.Version matches the stored version.
	// On success session.Version is incremented and UpdatedAt refreshed.
	Save(ctx context.Context, session *models.Session) error
	// Delete removes a session and its deployment records.
	Delete(ctx context.Context, id string) error
}

// DeploymentStore defines operations for deployment records.
type DeploymentStore interface {
	// Create stores a deployment record. ID and CreatedAt are set when empty.
	Create(ctx context.Context, record *models.DeploymentRecord) error
	// ListRecent retrieves the newest records across all sessions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.DeploymentRecord, error)
	// ListBySession retrieves the records of one session, newest first.
	ListBySession(ctx context.Context, sessionID string) ([]*models.DeploymentRecord, error)
}

// Store is the main interface for persistence.
type Store interface {
	// Sessions returns the SessionStore.
	Sessions() SessionStore
	// Deployments returns the DeploymentStore.
	Deployments() DeploymentStore

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing storage.
	Close() error
}
