package models

import (
	"fmt"
	"time"
)

// SessionableKind tags the owner of a session. Only processes own sessions
// today; the tag keeps the reference explicit instead of relying on dynamic
// type resolution.
type SessionableKind string

const (
	SessionableProcess SessionableKind = "PROCESS"
)

// Session is a dated time slot owned by a process. Sessions are mutable only
// while the owning project is PLANNED.
type Session struct {
	ID              string          `db:"id" json:"id"`
	SessionableKind SessionableKind `db:"sessionable_kind" json:"sessionable_kind"`
	SessionableID   string          `db:"sessionable_id" json:"sessionable_id"`
	Date            time.Time       `db:"date" json:"date"`
	StartTime       string          `db:"start_time" json:"start_time"`
	EndTime         string          `db:"end_time" json:"end_time"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Window resolves the check-in window for the session: the scheduled slot
// widened by the configured grace tolerances.
func (s Session) Window(graceBefore, graceAfter time.Duration) (time.Time, time.Time, error) {
	start, err := s.at(s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := s.at(s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("session %s: end %q not after start %q", s.ID, s.EndTime, s.StartTime)
	}
	return start.Add(-graceBefore), end.Add(graceAfter), nil
}

// ActiveAt reports whether the check-in window is open at the given instant.
func (s Session) ActiveAt(now time.Time, graceBefore, graceAfter time.Duration) (bool, error) {
	start, end, err := s.Window(graceBefore, graceAfter)
	if err != nil {
		return false, err
	}
	return !now.Before(start) && !now.After(end), nil
}

func (s Session) at(clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("session %s: bad time %q: %w", s.ID, clock, err)
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), t.Hour(), t.Minute(), 0, 0, s.Date.Location()), nil
}

// SessionParticipant is a roster row for the session's owning project.
type SessionParticipant struct {
	StudentRecordID string `db:"student_record_id" json:"student_record_id"`
	StudentCode     string `db:"student_code" json:"student_code"`
	FullName        string `db:"full_name" json:"full_name"`
	ParticipationID string `db:"participation_id" json:"participation_id"`
}
