package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// CheckInTokenRepository handles persistence of check-in window tokens.
type CheckInTokenRepository struct {
	db *sqlx.DB
}

// NewCheckInTokenRepository constructs the repository.
func NewCheckInTokenRepository(db *sqlx.DB) *CheckInTokenRepository {
	return &CheckInTokenRepository{db: db}
}

const tokenColumns = `id, session_id, kind, secret, max_uses, uses, issued_at, expires_at`

// Create persists a new token opening a check-in window.
func (r *CheckInTokenRepository) Create(ctx context.Context, token *models.CheckInToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.IssuedAt.IsZero() {
		token.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO vm_checkin_tokens (id, session_id, kind, secret, max_uses, uses, issued_at, expires_at)
VALUES (:id, :session_id, :kind, :secret, :max_uses, :uses, :issued_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create check-in token: %w", err)
	}
	return nil
}

// FindActive returns the most recent non-expired token of the given kind for
// a session, or sql.ErrNoRows when no window is open. Expiry is evaluated
// lazily against the supplied instant; no background sweeper exists.
func (r *CheckInTokenRepository) FindActive(ctx context.Context, sessionID string, kind models.TokenKind, now time.Time) (*models.CheckInToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_checkin_tokens
WHERE session_id = $1 AND kind = $2 AND expires_at > $3
ORDER BY issued_at DESC LIMIT 1`, tokenColumns)
	var token models.CheckInToken
	if err := r.db.GetContext(ctx, &token, query, sessionID, kind, now); err != nil {
		return nil, err
	}
	return &token, nil
}
