package models

import "time"

// ParticipableKind tags the entity a participation belongs to. Projects are
// the only participable kind today.
type ParticipableKind string

const (
	ParticipableProject ParticipableKind = "PROJECT"
)

// ParticipationRole is the role a student record plays in a participable.
type ParticipationRole string

const (
	ParticipationRoleStudent ParticipationRole = "STUDENT"
)

// ParticipationState is the lifecycle state of a participation. A unique
// partial index guarantees at most one ENROLLED row per
// (participable, student record).
type ParticipationState string

const (
	ParticipationEnrolled  ParticipationState = "ENROLLED"
	ParticipationWithdrawn ParticipationState = "WITHDRAWN"
	ParticipationCompleted ParticipationState = "COMPLETED"
)

// Participation links a student record to a participable entity.
type Participation struct {
	ID               string             `db:"id" json:"id"`
	ParticipableKind ParticipableKind   `db:"participable_kind" json:"participable_kind"`
	ParticipableID   string             `db:"participable_id" json:"participable_id"`
	StudentRecordID  string             `db:"student_record_id" json:"student_record_id"`
	Role             ParticipationRole  `db:"role" json:"role"`
	State            ParticipationState `db:"state" json:"state"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// ParticipationDetail enriches a participation with roster info.
type ParticipationDetail struct {
	Participation
	StudentCode string `db:"student_code" json:"student_code"`
	FullName    string `db:"full_name" json:"full_name"`
}

// Candidate is a staff-view row pairing a student record with the outcome of
// the eligibility evaluation for a project.
type Candidate struct {
	StudentRecordID string `json:"student_record_id"`
	StudentCode     string `json:"student_code"`
	FullName        string `json:"full_name"`
	Eligible        bool   `json:"eligible"`
	Code            string `json:"code"`
}
