package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

type mockAttendanceRepo struct {
	attendances map[string]*models.Attendance
	details     []models.AttendanceDetail
	created     *models.Attendance
	justified   map[string]bool
	validated   []string
	updateErr   error
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if a, ok := m.attendances[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) FindBySessionAndStudent(ctx context.Context, sessionID, studentRecordID string) (*models.Attendance, error) {
	for _, a := range m.attendances {
		if a.SessionID == sessionID && a.StudentRecordID == studentRecordID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockAttendanceRepo) ListBySession(ctx context.Context, sessionID string) ([]models.AttendanceDetail, error) {
	return m.details, nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, attendance *models.Attendance) error {
	attendance.ID = "att-new"
	m.created = attendance
	return nil
}

func (m *mockAttendanceRepo) UpdateJustification(ctx context.Context, id, justification string, grantHours bool) error {
	if m.justified == nil {
		m.justified = map[string]bool{}
	}
	m.justified[id] = grantHours
	return nil
}

func (m *mockAttendanceRepo) UpdateState(ctx context.Context, id string, state models.AttendanceState) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.validated = append(m.validated, id)
	if a, ok := m.attendances[id]; ok {
		a.State = state
	}
	return nil
}

type mockLedger struct {
	credits []models.HourRecord
	err     error
}

func (m *mockLedger) CreditHours(ctx context.Context, studentRecordID string, hours int, sourceAttendanceID string) (*models.HourRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	record := models.HourRecord{
		ID:                 fmt.Sprintf("hr-%d", len(m.credits)+1),
		StudentRecordID:    studentRecordID,
		Hours:              hours,
		SourceAttendanceID: sourceAttendanceID,
	}
	m.credits = append(m.credits, record)
	return &record, nil
}

type mockAttendanceSessions struct {
	sessions map[string]*models.Session
}

func (m *mockAttendanceSessions) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockAttendanceProcesses struct {
	processes map[string]*models.Process
}

func (m *mockAttendanceProcesses) FindByID(ctx context.Context, id string) (*models.Process, error) {
	if p, ok := m.processes[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockAttendanceProjects struct {
	projects map[string]*models.Project
}

func (m *mockAttendanceProjects) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockAttendanceRecords struct {
	byCode map[string]*models.StudentRecord
}

func (m *mockAttendanceRecords) FindActiveByCode(ctx context.Context, epSiteID, studentCode string) (*models.StudentRecord, error) {
	if r, ok := m.byCode[studentCode]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type mockAttendanceParticipations struct {
	enrolled bool
	details  []models.ParticipationDetail
}

func (m *mockAttendanceParticipations) ExistsEnrolled(ctx context.Context, kind models.ParticipableKind, participableID, studentRecordID string) (bool, error) {
	return m.enrolled, nil
}

func (m *mockAttendanceParticipations) ListEnrolledDetails(ctx context.Context, kind models.ParticipableKind, participableID string) ([]models.ParticipationDetail, error) {
	return m.details, nil
}

type attendanceFixture struct {
	repo           *mockAttendanceRepo
	ledger         *mockLedger
	participations *mockAttendanceParticipations
	svc            *AttendanceService
}

func newAttendanceFixture(assignedHours *int) *attendanceFixture {
	f := &attendanceFixture{
		repo:           &mockAttendanceRepo{attendances: map[string]*models.Attendance{}},
		ledger:         &mockLedger{},
		participations: &mockAttendanceParticipations{enrolled: true},
	}
	f.svc = NewAttendanceService(
		f.repo,
		f.ledger,
		&mockAttendanceSessions{sessions: map[string]*models.Session{
			"sess-1": {
				ID:              "sess-1",
				SessionableKind: models.SessionableProcess,
				SessionableID:   "proc-1",
				Date:            time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
				StartTime:       "09:00",
				EndTime:         "11:30",
			},
		}},
		&mockAttendanceProcesses{processes: map[string]*models.Process{
			"proc-1": {ID: "proc-1", ProjectID: "proj-1", AssignedHours: assignedHours, RequiresAttendance: true},
		}},
		&mockAttendanceProjects{projects: map[string]*models.Project{
			"proj-1": {ID: "proj-1", EPSiteID: "ep-1", State: models.ProjectStateInProgress},
		}},
		&mockAttendanceRecords{byCode: map[string]*models.StudentRecord{"S001": activeRecord()}},
		f.participations,
		nil,
	)
	return f
}

func TestValidateBatchCreditsAssignedHours(t *testing.T) {
	f := newAttendanceFixture(intPtr(4))
	f.repo.attendances["att-1"] = &models.Attendance{
		ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceRecorded,
	}

	outcomes, err := f.svc.ValidateBatch(context.Background(), "sess-1", []string{"att-1"}, true)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Validated)
	assert.Equal(t, "hr-1", outcomes[0].HourRecordID)
	require.Len(t, f.ledger.credits, 1)
	assert.Equal(t, 4, f.ledger.credits[0].Hours)
	assert.Equal(t, "att-1", f.ledger.credits[0].SourceAttendanceID)
}

func TestValidateBatchDerivesHoursFromSlot(t *testing.T) {
	f := newAttendanceFixture(nil)
	f.repo.attendances["att-1"] = &models.Attendance{
		ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceRecorded,
	}

	outcomes, err := f.svc.ValidateBatch(context.Background(), "sess-1", []string{"att-1"}, true)
	require.NoError(t, err)
	assert.True(t, outcomes[0].Validated)
	require.Len(t, f.ledger.credits, 1)
	// 09:00 to 11:30 rounds up to 3
	assert.Equal(t, 3, f.ledger.credits[0].Hours)
}

func TestValidateBatchIsBestEffort(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	f.repo.attendances["att-ok"] = &models.Attendance{
		ID: "att-ok", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceRecorded,
	}
	f.repo.attendances["att-done"] = &models.Attendance{
		ID: "att-done", SessionID: "sess-1", StudentRecordID: "rec-2", State: models.AttendanceValidated,
	}
	f.repo.attendances["att-foreign"] = &models.Attendance{
		ID: "att-foreign", SessionID: "sess-2", StudentRecordID: "rec-3", State: models.AttendanceRecorded,
	}

	outcomes, err := f.svc.ValidateBatch(context.Background(), "sess-1", []string{"att-missing", "att-done", "att-foreign", "att-ok"}, true)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.False(t, outcomes[0].Validated)
	assert.Equal(t, "NOT_FOUND", outcomes[0].Reason)

	assert.False(t, outcomes[1].Validated)
	assert.Equal(t, "ALREADY_VALIDATED", outcomes[1].Reason)

	assert.False(t, outcomes[2].Validated, "another session's attendance never validates here")
	assert.Equal(t, "WRONG_SESSION", outcomes[2].Reason)

	assert.True(t, outcomes[3].Validated)
	assert.Equal(t, "hr-1", outcomes[3].HourRecordID)
	assert.NotContains(t, f.repo.validated, "att-foreign")
}

func TestValidateBatchWithoutCreditFlagSkipsLedger(t *testing.T) {
	f := newAttendanceFixture(intPtr(4))
	f.repo.attendances["att-1"] = &models.Attendance{
		ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceRecorded,
	}

	outcomes, err := f.svc.ValidateBatch(context.Background(), "sess-1", []string{"att-1"}, false)
	require.NoError(t, err)
	assert.True(t, outcomes[0].Validated)
	assert.Empty(t, outcomes[0].HourRecordID)
	assert.Empty(t, f.ledger.credits)
	assert.Contains(t, f.repo.validated, "att-1")
}

func TestValidateBatchJustifiedWithoutGrantSkipsLedger(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	justification := "medical certificate"
	f.repo.attendances["att-1"] = &models.Attendance{
		ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1",
		State: models.AttendanceJustified, Justification: &justification,
	}

	outcomes, err := f.svc.ValidateBatch(context.Background(), "sess-1", []string{"att-1"}, true)
	require.NoError(t, err)
	assert.True(t, outcomes[0].Validated)
	assert.Empty(t, outcomes[0].HourRecordID)
	assert.Empty(t, f.ledger.credits)
}

func TestValidateBatchLedgerFailureDoesNotRollBack(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	f.ledger.err = fmt.Errorf("ledger unavailable")
	f.repo.attendances["att-1"] = &models.Attendance{
		ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceRecorded,
	}

	outcomes, err := f.svc.ValidateBatch(context.Background(), "sess-1", []string{"att-1"}, true)
	require.NoError(t, err)
	assert.True(t, outcomes[0].Validated, "validation sticks even when the credit fails")
	assert.Equal(t, "CREDIT_FAILED", outcomes[0].Reason)
	assert.Contains(t, f.repo.validated, "att-1")
}

func TestJustifyCreatesAbsenceRecord(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))

	attendance, err := f.svc.Justify(context.Background(), JustifyRequest{
		SessionID:     "sess-1",
		StudentCode:   "S001",
		Justification: "medical certificate",
		GrantHours:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceJustified, attendance.State)
	assert.True(t, attendance.HoursGranted)
	require.NotNil(t, f.repo.created)
	assert.Equal(t, models.CheckInManual, f.repo.created.Method)
}

func TestJustifyUpgradesExistingRecord(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	f.repo.attendances["att-1"] = &models.Attendance{
		ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceRecorded,
	}

	attendance, err := f.svc.Justify(context.Background(), JustifyRequest{
		SessionID:     "sess-1",
		StudentCode:   "S001",
		Justification: "late bus from the rural site",
	})
	require.NoError(t, err)
	assert.Equal(t, "att-1", attendance.ID)
	assert.Equal(t, models.AttendanceJustified, attendance.State)
	assert.Nil(t, f.repo.created)
	assert.Contains(t, f.repo.justified, "att-1")
}

func TestJustifyRejectsValidatedRecord(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	f.repo.attendances["att-1"] = &models.Attendance{
		ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceValidated,
	}

	_, err := f.svc.Justify(context.Background(), JustifyRequest{
		SessionID:     "sess-1",
		StudentCode:   "S001",
		Justification: "medical certificate",
	})
	require.Error(t, err)
}

func TestJustifyRejectsNonParticipant(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	f.participations.enrolled = false

	_, err := f.svc.Justify(context.Background(), JustifyRequest{
		SessionID:     "sess-1",
		StudentCode:   "S001",
		Justification: "medical certificate",
	})
	require.Error(t, err)
}

func TestRosterMarksAbsentStudents(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	f.participations.details = []models.ParticipationDetail{
		{Participation: models.Participation{StudentRecordID: "rec-1"}, StudentCode: "S001", FullName: "Ana Quispe"},
		{Participation: models.Participation{StudentRecordID: "rec-2"}, StudentCode: "S002", FullName: "Luis Mamani"},
	}
	f.repo.details = []models.AttendanceDetail{
		{Attendance: models.Attendance{ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", State: models.AttendanceRecorded}},
	}

	rows, err := f.svc.Roster(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Attendance)
	assert.Equal(t, "att-1", rows[0].Attendance.ID)
	assert.Nil(t, rows[1].Attendance)
}

func TestReportRendersCSV(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))
	f.repo.details = []models.AttendanceDetail{
		{
			Attendance:  models.Attendance{ID: "att-1", SessionID: "sess-1", StudentRecordID: "rec-1", Method: models.CheckInQR, State: models.AttendanceRecorded},
			StudentCode: "S001",
			FullName:    "Ana Quispe",
		},
	}

	body, contentType, err := f.svc.Report(context.Background(), "sess-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(body), "S001")
	assert.Contains(t, string(body), "Ana Quispe")
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	f := newAttendanceFixture(intPtr(2))

	_, _, err := f.svc.Report(context.Background(), "sess-1", "xlsx")
	require.Error(t, err)
}
