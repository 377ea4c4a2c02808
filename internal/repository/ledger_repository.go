package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

// LedgerRepository emits hour-credit entries into the academic ledger.
// The ledger's durability is owned elsewhere; from the engine's perspective
// CreditHours is fire-and-forget and its failure never rolls back an
// attendance validation that already committed.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreditHours records one hour-credit entry for a validated attendance.
func (r *LedgerRepository) CreditHours(ctx context.Context, studentRecordID string, hours int, sourceAttendanceID string) (*models.HourRecord, error) {
	record := &models.HourRecord{
		ID:                 uuid.NewString(),
		StudentRecordID:    studentRecordID,
		Hours:              hours,
		SourceAttendanceID: sourceAttendanceID,
		CreatedAt:          time.Now().UTC(),
	}
	const query = `INSERT INTO vm_hour_records (id, student_record_id, hours, source_attendance_id, created_at)
VALUES (:id, :student_record_id, :hours, :source_attendance_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return nil, fmt.Errorf("credit hours: %w", err)
	}
	return record, nil
}
