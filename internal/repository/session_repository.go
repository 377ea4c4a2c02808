package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// SessionRepository handles persistence of process sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, sessionable_kind, sessionable_id, date, start_time, end_time, created_at, updated_at`

// FindByID returns a session by its ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_sessions WHERE id = $1`, sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByProcess returns the sessions owned by a process ordered by date.
func (r *SessionRepository) ListByProcess(ctx context.Context, processID string) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_sessions WHERE sessionable_kind = $1 AND sessionable_id = $2 ORDER BY date, start_time`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, models.SessionableProcess, processID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// CreateBatch inserts all sessions inside one transaction: either the whole
// batch lands or none of it does.
func (r *SessionRepository) CreateBatch(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	const query = `INSERT INTO vm_sessions (id, sessionable_kind, sessionable_id, date, start_time, end_time, created_at, updated_at)
VALUES (:id, :sessionable_kind, :sessionable_id, :date, :start_time, :end_time, :created_at, :updated_at)`
	for i := range sessions {
		prepare(&sessions[i])
		if _, err := tx.NamedExecContext(ctx, query, &sessions[i]); err != nil {
			return fmt.Errorf("insert session batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session batch: %w", err)
	}
	committed = true
	return nil
}

// Update persists schedule changes to a session.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vm_sessions SET date = :date, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM vm_sessions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func prepare(session *models.Session) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
}
