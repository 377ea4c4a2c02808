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

// Sentinel failures for the atomic check-in path.
var (
	// ErrTokenExhausted signals a lost capacity race or an already drained
	// token: the compare-and-increment matched no row.
	ErrTokenExhausted = fmt.Errorf("check-in token exhausted")
	// ErrDuplicateAttendance signals the (session, student) pair already
	// holds an attendance row.
	ErrDuplicateAttendance = fmt.Errorf("attendance already recorded")
)

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, session_id, student_record_id, method, checked_in_at, state, justification, hours_granted, created_at, updated_at`

// RecordCheckIn consumes token capacity and inserts the attendance row in a
// single transaction. The guarded UPDATE is the only shared-counter write in
// the system: concurrent check-ins can never drive remaining capacity below
// zero because a drained token matches no row.
func (r *AttendanceRepository) RecordCheckIn(ctx context.Context, tokenID string, attendance *models.Attendance) error {
	prepareAttendance(attendance)
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin check-in: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if tokenID != "" {
		const consume = `UPDATE vm_checkin_tokens SET uses = uses + 1
WHERE id = $1 AND (max_uses = 0 OR uses < max_uses)`
		res, err := tx.ExecContext(ctx, consume, tokenID)
		if err != nil {
			return fmt.Errorf("consume check-in token: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("consume check-in token: %w", err)
		}
		if affected == 0 {
			return ErrTokenExhausted
		}
	}

	const insert = `INSERT INTO vm_attendances (id, session_id, student_record_id, method, checked_in_at, state, justification, hours_granted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (session_id, student_record_id) DO NOTHING
RETURNING id`
	var insertedID string
	err = tx.QueryRowxContext(ctx, insert,
		attendance.ID, attendance.SessionID, attendance.StudentRecordID, attendance.Method,
		attendance.CheckedInAt, attendance.State, attendance.Justification, attendance.HoursGranted,
		attendance.CreatedAt, attendance.UpdatedAt,
	).Scan(&insertedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrDuplicateAttendance
		}
		return fmt.Errorf("insert attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit check-in: %w", err)
	}
	committed = true
	return nil
}

// FindByID returns an attendance row by its ID.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_attendances WHERE id = $1`, attendanceColumns)
	var attendance models.Attendance
	if err := r.db.GetContext(ctx, &attendance, query, id); err != nil {
		return nil, err
	}
	return &attendance, nil
}

// FindBySessionAndStudent returns the attendance of one student in a
// session, or nil when none exists.
func (r *AttendanceRepository) FindBySessionAndStudent(ctx context.Context, sessionID, studentRecordID string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM vm_attendances WHERE session_id = $1 AND student_record_id = $2`, attendanceColumns)
	var attendance models.Attendance
	if err := r.db.GetContext(ctx, &attendance, query, sessionID, studentRecordID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &attendance, nil
}

// ListBySession returns the session's attendance rows with roster info.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID string) ([]models.AttendanceDetail, error) {
	const query = `SELECT a.id, a.session_id, a.student_record_id, a.method, a.checked_in_at, a.state, a.justification, a.hours_granted, a.created_at, a.updated_at,
sr.student_code, sr.full_name
FROM vm_attendances a
JOIN student_records sr ON sr.id = a.student_record_id
WHERE a.session_id = $1
ORDER BY sr.student_code`
	var details []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &details, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session attendances: %w", err)
	}
	return details, nil
}

// Create inserts an attendance row outside the check-in path (justified
// absences). Duplicates surface as ErrDuplicateAttendance.
func (r *AttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	prepareAttendance(attendance)
	const query = `INSERT INTO vm_attendances (id, session_id, student_record_id, method, checked_in_at, state, justification, hours_granted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (session_id, student_record_id) DO NOTHING
RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query,
		attendance.ID, attendance.SessionID, attendance.StudentRecordID, attendance.Method,
		attendance.CheckedInAt, attendance.State, attendance.Justification, attendance.HoursGranted,
		attendance.CreatedAt, attendance.UpdatedAt,
	).Scan(&insertedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrDuplicateAttendance
		}
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// UpdateJustification marks an attendance as JUSTIFIED.
func (r *AttendanceRepository) UpdateJustification(ctx context.Context, id, justification string, grantHours bool) error {
	const query = `UPDATE vm_attendances SET state = $2, justification = $3, hours_granted = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.AttendanceJustified, justification, grantHours, time.Now().UTC()); err != nil {
		return fmt.Errorf("justify attendance: %w", err)
	}
	return nil
}

// UpdateState transitions an attendance record.
func (r *AttendanceRepository) UpdateState(ctx context.Context, id string, state models.AttendanceState) error {
	const query = `UPDATE vm_attendances SET state = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("update attendance state: %w", err)
	}
	return nil
}

func prepareAttendance(attendance *models.Attendance) {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if attendance.CheckedInAt.IsZero() {
		attendance.CheckedInAt = now
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = now
	}
	attendance.UpdatedAt = now
}
