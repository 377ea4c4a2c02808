package models

import "time"

// RecordingType controls what a process records for participants.
type RecordingType string

const (
	RecordingAttendance RecordingType = "ATTENDANCE"
	RecordingHours      RecordingType = "HOURS"
	RecordingMixed      RecordingType = "MIXED"
)

// Valid returns true when the recording type is a supported value.
func (t RecordingType) Valid() bool {
	switch t {
	case RecordingAttendance, RecordingHours, RecordingMixed:
		return true
	default:
		return false
	}
}

// Process is a stage of a project. AssignedHours is required for HOURS and
// MIXED, MinGrade for MIXED.
type Process struct {
	ID                 string        `db:"id" json:"id"`
	ProjectID          string        `db:"project_id" json:"project_id"`
	Name               string        `db:"name" json:"name"`
	Description        string        `db:"description" json:"description"`
	RecordingType      RecordingType `db:"recording_type" json:"recording_type"`
	AssignedHours      *int          `db:"assigned_hours" json:"assigned_hours,omitempty"`
	MinGrade           *float64      `db:"min_grade" json:"min_grade,omitempty"`
	RequiresAttendance bool          `db:"requires_attendance" json:"requires_attendance"`
	Order              int           `db:"position" json:"order"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}
