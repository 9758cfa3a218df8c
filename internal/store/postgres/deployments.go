package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/autobridge/autobridge/internal/models"
	"github.com/autobridge/autobridge/internal/store"
)

// DeploymentStore implements store.DeploymentStore using PostgreSQL.
type DeploymentStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Create records a deployment.
func (s *DeploymentStore) Create(ctx context.Context, record *models.DeploymentRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO deployment_records (id, session_id, connector, version, apps, log_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.SessionID,
		record.Connector,
		record.Version,
		pq.Array(record.Apps),
		record.LogCount,
		record.CreatedAt,
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return fmt.Errorf("recording deployment for session %s: %w", record.SessionID, store.ErrNotFound)
		case isUniqueViolation(err):
			return fmt.Errorf("recording deployment %s: %w", record.ID, store.ErrDuplicateKey)
		}
		return fmt.Errorf("inserting deployment record: %w", err)
	}

	return nil
}

// ListRecent retrieves the newest deployment records across all sessions.
func (s *DeploymentStore) ListRecent(ctx context.Context, limit int) ([]*models.DeploymentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, session_id, connector, version, apps, log_count, created_at
		FROM deployment_records
		ORDER BY created_at DESC
		LIMIT $1`

	return s.query(ctx, query, limit)
}

// ListBySession retrieves the deployment records of one session.
func (s *DeploymentStore) ListBySession(ctx context.Context, sessionID string) ([]*models.DeploymentRecord, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, nil
	}
	query := `
		SELECT id, session_id, connector, version, apps, log_count, created_at
		FROM deployment_records
		WHERE session_id = $1
		ORDER BY created_at DESC`

	return s.query(ctx, query, sessionID)
}

func (s *DeploymentStore) query(ctx context.Context, query string, args ...any) ([]*models.DeploymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deployment records: %w", err)
	}
	defer rows.Close()

	var records []*models.DeploymentRecord
	for rows.Next() {
		r := &models.DeploymentRecord{}
		if err := rows.Scan(
			&r.ID,
			&r.SessionID,
			&r.Connector,
			&r.Version,
			pq.Array(&r.Apps),
			&r.LogCount,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning deployment record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deployment records: %w", err)
	}

	return records, nil
}
