package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// StudentRecordRepository reads academic records (expedientes).
type StudentRecordRepository struct {
	db *sqlx.DB
}

// NewStudentRecordRepository constructs the repository.
func NewStudentRecordRepository(db *sqlx.DB) *StudentRecordRepository {
	return &StudentRecordRepository{db: db}
}

const studentRecordColumns = `id, user_id, ep_site_id, student_code, full_name, state, created_at, updated_at`

// FindByID returns a student record by its ID.
func (r *StudentRecordRepository) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_records WHERE id = $1`, studentRecordColumns)
	var record models.StudentRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindActiveByUser returns the user's ACTIVE record, newest first when the
// user holds records in several EP-sites.
func (r *StudentRecordRepository) FindActiveByUser(ctx context.Context, userID string) (*models.StudentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_records WHERE user_id = $1 AND state = $2 ORDER BY created_at DESC LIMIT 1`, studentRecordColumns)
	var record models.StudentRecord
	if err := r.db.GetContext(ctx, &record, query, userID, models.StudentRecordActive); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindActiveByCode resolves a student code within an EP-site, used by manual
// check-in and the justification workflow.
func (r *StudentRecordRepository) FindActiveByCode(ctx context.Context, epSiteID, studentCode string) (*models.StudentRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_records WHERE ep_site_id = $1 AND student_code = $2 AND state = $3`, studentRecordColumns)
	var record models.StudentRecord
	if err := r.db.GetContext(ctx, &record, query, epSiteID, studentCode, models.StudentRecordActive); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListActiveByEPSite returns the ACTIVE records of an EP-site, the candidate
// pool for staff eligibility previews.
func (r *StudentRecordRepository) ListActiveByEPSite(ctx context.Context, epSiteID string, limit int) ([]models.StudentRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM student_records WHERE ep_site_id = $1 AND state = $2 ORDER BY student_code LIMIT %d`, studentRecordColumns, limit)
	var records []models.StudentRecord
	if err := r.db.SelectContext(ctx, &records, query, epSiteID, models.StudentRecordActive); err != nil {
		return nil, fmt.Errorf("list active records: %w", err)
	}
	return records, nil
}
