package models

import "time"

// Period models an academic period. Catalog data is read-only for this
// service; periods are managed by the academic office. Exactly one period is
// current at a time.
type Period struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
}

// Contains reports whether the date falls inside the period, inclusive on
// both ends.
func (p Period) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.StartDate.Truncate(24*time.Hour)) && !d.After(p.EndDate.Truncate(24*time.Hour))
}

// EPSite pairs a professional school with a campus. Projects and student
// records are always scoped to one EP-site.
type EPSite struct {
	ID         string `db:"id" json:"id"`
	SchoolID   string `db:"school_id" json:"school_id"`
	CampusID   string `db:"campus_id" json:"campus_id"`
	SchoolName string `db:"school_name" json:"school_name"`
	CampusName string `db:"campus_name" json:"campus_name"`
}

// Matriculation is the externally-sourced registration of a student record in
// an academic period, carrying the student's cycle for that period.
type Matriculation struct {
	StudentRecordID string `db:"student_record_id" json:"student_record_id"`
	PeriodID        string `db:"period_id" json:"period_id"`
	Cycle           int    `db:"cycle" json:"cycle"`
}
