package models

import "time"

// AttendanceState is the lifecycle state of an attendance record.
type AttendanceState string

const (
	AttendanceRecorded  AttendanceState = "RECORDED"
	AttendanceJustified AttendanceState = "JUSTIFIED"
	AttendanceValidated AttendanceState = "VALIDATED"
)

// Attendance is one student's check-in (or justified absence) for a session.
// A unique index on (session_id, student_record_id) makes duplicate check-ins
// impossible at the storage layer.
type Attendance struct {
	ID              string          `db:"id" json:"id"`
	SessionID       string          `db:"session_id" json:"session_id"`
	StudentRecordID string          `db:"student_record_id" json:"student_record_id"`
	Method          CheckInMethod   `db:"method" json:"method"`
	CheckedInAt     time.Time       `db:"checked_in_at" json:"checked_in_at"`
	State           AttendanceState `db:"state" json:"state"`
	Justification   *string         `db:"justification" json:"justification,omitempty"`
	HoursGranted    bool            `db:"hours_granted" json:"hours_granted"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail extends an attendance row with roster info.
type AttendanceDetail struct {
	Attendance
	StudentCode string `db:"student_code" json:"student_code"`
	FullName    string `db:"full_name" json:"full_name"`
}

// ValidationOutcome reports the per-id result of a validation batch.
type ValidationOutcome struct {
	AttendanceID string `json:"attendance_id"`
	Validated    bool   `json:"validated"`
	Reason       string `json:"reason,omitempty"`
	HourRecordID string `json:"hour_record_id,omitempty"`
}

// HourRecord is an hour-credit entry emitted to the academic ledger when an
// attendance is validated.
type HourRecord struct {
	ID                 string    `db:"id" json:"id"`
	StudentRecordID    string    `db:"student_record_id" json:"student_record_id"`
	Hours              int       `db:"hours" json:"hours"`
	SourceAttendanceID string    `db:"source_attendance_id" json:"source_attendance_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
