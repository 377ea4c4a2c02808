package models

import "time"

// StudentRecordState is the lifecycle state of an academic record.
type StudentRecordState string

const (
	StudentRecordActive   StudentRecordState = "ACTIVE"
	StudentRecordInactive StudentRecordState = "INACTIVE"
)

// StudentRecord (expediente) links a user to an EP-site. A student holds at
// most one ACTIVE record per EP-site.
type StudentRecord struct {
	ID          string             `db:"id" json:"id"`
	UserID      string             `db:"user_id" json:"user_id"`
	EPSiteID    string             `db:"ep_site_id" json:"ep_site_id"`
	StudentCode string             `db:"student_code" json:"student_code"`
	FullName    string             `db:"full_name" json:"full_name"`
	State       StudentRecordState `db:"state" json:"state"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}
