package models

import "time"

// ProjectType distinguishes open projects from level-bound ones.
type ProjectType string

const (
	ProjectTypeFree   ProjectType = "FREE"
	ProjectTypeLinked ProjectType = "LINKED"
)

// Valid returns true when the type is a supported value.
func (t ProjectType) Valid() bool {
	return t == ProjectTypeFree || t == ProjectTypeLinked
}

// ProjectState is the lifecycle state of a project. Session mutability is
// tied to PLANNED: publishing is irreversible for that purpose.
type ProjectState string

const (
	ProjectStatePlanned    ProjectState = "PLANNED"
	ProjectStateInProgress ProjectState = "IN_PROGRESS"
	ProjectStateClosed     ProjectState = "CLOSED"
	ProjectStateCancelled  ProjectState = "CANCELLED"
)

// ProjectModality captures how project activities are delivered.
type ProjectModality string

const (
	ModalityOnsite ProjectModality = "ONSITE"
	ModalityRemote ProjectModality = "REMOTE"
	ModalityMixed  ProjectModality = "MIXED"
)

// Project is an extension/outreach project owned by an EP-site for one
// academic period. At most one LINKED project may exist per
// (EP-site, period, level).
type Project struct {
	ID                  string          `db:"id" json:"id"`
	EPSiteID            string          `db:"ep_site_id" json:"ep_site_id"`
	PeriodID            string          `db:"period_id" json:"period_id"`
	Code                string          `db:"code" json:"code"`
	Title               string          `db:"title" json:"title"`
	Description         string          `db:"description" json:"description"`
	Type                ProjectType     `db:"type" json:"type"`
	Modality            ProjectModality `db:"modality" json:"modality"`
	State               ProjectState    `db:"state" json:"state"`
	Level               *int            `db:"level" json:"level,omitempty"`
	PlannedHours        int             `db:"planned_hours" json:"planned_hours"`
	MinParticipantHours *int            `db:"min_participant_hours" json:"min_participant_hours,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// ProjectFilter provides filters for staff project listings.
type ProjectFilter struct {
	EPSiteID string
	PeriodID string
	State    ProjectState
	Type     ProjectType
	Page     int
	PageSize int
}

// ProjectDetail bundles a project with its processes and sessions for the
// expanded management view.
type ProjectDetail struct {
	Project   Project             `json:"project"`
	Processes []Process           `json:"processes"`
	Sessions  map[string][]Session `json:"sessions,omitempty"`
}

// StudentProjectContext describes the student's standing used by the
// self-service project views.
type StudentProjectContext struct {
	EPSiteID         string `json:"ep_site_id"`
	PeriodID         string `json:"period_id"`
	CurrentCycle     *int   `json:"current_cycle"`
	HasPendingLinked bool   `json:"has_pending_linked"`
}
