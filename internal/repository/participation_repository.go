package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// ParticipationRepository handles persistence of project participations.
type ParticipationRepository struct {
	db *sqlx.DB
}

// NewParticipationRepository constructs the repository.
func NewParticipationRepository(db *sqlx.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// ExistsEnrolled reports whether the student record already holds a live
// ENROLLED participation in the participable.
func (r *ParticipationRepository) ExistsEnrolled(ctx context.Context, kind models.ParticipableKind, participableID, studentRecordID string) (bool, error) {
	const query = `SELECT 1 FROM vm_participations
WHERE participable_kind = $1 AND participable_id = $2 AND student_record_id = $3 AND state = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, kind, participableID, studentRecordID, models.ParticipationEnrolled); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrolled participation: %w", err)
	}
	return true, nil
}

// Create inserts a participation. The unique partial index on
// (participable_kind, participable_id, student_record_id) WHERE state =
// 'ENROLLED' turns a concurrent double-submit into sql.ErrNoRows via
// ON CONFLICT DO NOTHING, which callers surface as ALREADY_ENROLLED.
func (r *ParticipationRepository) Create(ctx context.Context, participation *models.Participation) error {
	if participation.ID == "" {
		participation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if participation.CreatedAt.IsZero() {
		participation.CreatedAt = now
	}
	participation.UpdatedAt = now
	const query = `INSERT INTO vm_participations (id, participable_kind, participable_id, student_record_id, role, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (participable_kind, participable_id, student_record_id) WHERE state = 'ENROLLED' DO NOTHING
RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query,
		participation.ID, participation.ParticipableKind, participation.ParticipableID,
		participation.StudentRecordID, participation.Role, participation.State,
		participation.CreatedAt, participation.UpdatedAt,
	).Scan(&insertedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrDuplicateParticipation
		}
		return fmt.Errorf("create participation: %w", err)
	}
	return nil
}

// ErrDuplicateParticipation signals a lost race against an identical
// ENROLLED participation.
var ErrDuplicateParticipation = fmt.Errorf("participation already exists")

// ListEnrolledDetails returns the roster of ENROLLED participations for a
// participable, with student info resolved.
func (r *ParticipationRepository) ListEnrolledDetails(ctx context.Context, kind models.ParticipableKind, participableID string) ([]models.ParticipationDetail, error) {
	const query = `SELECT p.id, p.participable_kind, p.participable_id, p.student_record_id, p.role, p.state, p.created_at, p.updated_at,
sr.student_code, sr.full_name
FROM vm_participations p
JOIN student_records sr ON sr.id = p.student_record_id
WHERE p.participable_kind = $1 AND p.participable_id = $2 AND p.state = $3
ORDER BY sr.student_code`
	var details []models.ParticipationDetail
	if err := r.db.SelectContext(ctx, &details, query, kind, participableID, models.ParticipationEnrolled); err != nil {
		return nil, fmt.Errorf("list enrolled participations: %w", err)
	}
	return details, nil
}

// HasPendingLinked reports whether the student record holds an unresolved
// ENROLLED participation in a LINKED project of the same EP-site from a
// period starting before the given one. Such a pending track blocks new
// LINKED enrollments.
func (r *ParticipationRepository) HasPendingLinked(ctx context.Context, studentRecordID, epSiteID string, before time.Time, excludeProjectID string) (bool, error) {
	const query = `SELECT 1 FROM vm_participations p
JOIN vm_projects pr ON pr.id = p.participable_id AND p.participable_kind = $1
JOIN academic_periods ap ON ap.id = pr.period_id
WHERE p.student_record_id = $2
  AND p.state = $3
  AND pr.type = $4
  AND pr.ep_site_id = $5
  AND pr.id <> $6
  AND ap.start_date < $7
LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query,
		models.ParticipableProject, studentRecordID, models.ParticipationEnrolled,
		models.ProjectTypeLinked, epSiteID, excludeProjectID, before,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending linked participation: %w", err)
	}
	return true, nil
}

// ListEnrolledProjectIDs returns the project ids the student record is
// currently enrolled in.
func (r *ParticipationRepository) ListEnrolledProjectIDs(ctx context.Context, studentRecordID string) ([]string, error) {
	const query = `SELECT participable_id FROM vm_participations
WHERE participable_kind = $1 AND student_record_id = $2 AND state = $3`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.ParticipableProject, studentRecordID, models.ParticipationEnrolled); err != nil {
		return nil, fmt.Errorf("list enrolled project ids: %w", err)
	}
	return ids, nil
}
