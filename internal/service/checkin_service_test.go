package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/internal/repository"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

type mockTokenRepo struct {
	created *models.CheckInToken
	active  map[models.TokenKind]*models.CheckInToken
}

func (m *mockTokenRepo) Create(ctx context.Context, token *models.CheckInToken) error {
	token.ID = "tok-1"
	m.created = token
	return nil
}

func (m *mockTokenRepo) FindActive(ctx context.Context, sessionID string, kind models.TokenKind, now time.Time) (*models.CheckInToken, error) {
	if token, ok := m.active[kind]; ok {
		return token, nil
	}
	return nil, sql.ErrNoRows
}

type mockCheckInAttendances struct {
	recordErr error
	recorded  *models.Attendance
	tokenID   string
}

func (m *mockCheckInAttendances) RecordCheckIn(ctx context.Context, tokenID string, attendance *models.Attendance) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	attendance.ID = "att-1"
	m.recorded = attendance
	m.tokenID = tokenID
	return nil
}

type mockCheckInSessions struct {
	sessions map[string]*models.Session
}

func (m *mockCheckInSessions) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCheckInProcesses struct {
	processes map[string]*models.Process
}

func (m *mockCheckInProcesses) FindByID(ctx context.Context, id string) (*models.Process, error) {
	if p, ok := m.processes[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockCheckInProjects struct {
	projects map[string]*models.Project
}

func (m *mockCheckInProjects) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockCheckInRecords struct {
	byID   map[string]*models.StudentRecord
	byCode map[string]*models.StudentRecord
}

func (m *mockCheckInRecords) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCheckInRecords) FindActiveByCode(ctx context.Context, epSiteID, studentCode string) (*models.StudentRecord, error) {
	if r, ok := m.byCode[studentCode]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type mockCheckInParticipations struct {
	enrolled bool
}

func (m *mockCheckInParticipations) ExistsEnrolled(ctx context.Context, kind models.ParticipableKind, participableID, studentRecordID string) (bool, error) {
	return m.enrolled, nil
}

type checkInFixture struct {
	tokens         *mockTokenRepo
	attendances    *mockCheckInAttendances
	participations *mockCheckInParticipations
	svc            *CheckInService
	now            time.Time
}

// newCheckInFixture builds a service whose clock sits inside the session
// window: a two hour session at 09:00 with the default graces.
func newCheckInFixture(t *testing.T) *checkInFixture {
	t.Helper()
	session := &models.Session{
		ID:              "sess-1",
		SessionableKind: models.SessionableProcess,
		SessionableID:   "proc-1",
		Date:            time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:00",
		EndTime:         "11:00",
	}
	f := &checkInFixture{
		tokens:         &mockTokenRepo{active: map[models.TokenKind]*models.CheckInToken{}},
		attendances:    &mockCheckInAttendances{},
		participations: &mockCheckInParticipations{enrolled: true},
		now:            time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC),
	}
	f.svc = NewCheckInService(
		f.tokens,
		f.attendances,
		&mockCheckInSessions{sessions: map[string]*models.Session{"sess-1": session}},
		&mockCheckInProcesses{processes: map[string]*models.Process{
			"proc-1": {ID: "proc-1", ProjectID: "proj-1", RequiresAttendance: true},
		}},
		&mockCheckInProjects{projects: map[string]*models.Project{
			"proj-1": {ID: "proj-1", EPSiteID: "ep-1", State: models.ProjectStateInProgress},
		}},
		&mockCheckInRecords{
			byID:   map[string]*models.StudentRecord{"rec-1": activeRecord()},
			byCode: map[string]*models.StudentRecord{"S001": activeRecord()},
		},
		f.participations,
		15*time.Minute, 30*time.Minute, 50,
		nil,
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *checkInFixture) withQRToken(secret string) *models.CheckInToken {
	token := &models.CheckInToken{
		ID:        "tok-1",
		SessionID: "sess-1",
		Kind:      models.TokenKindQR,
		Secret:    secret,
		MaxUses:   50,
		ExpiresAt: f.now.Add(time.Hour),
	}
	f.tokens.active[models.TokenKindQR] = token
	return token
}

func TestOpenQRWithinWindow(t *testing.T) {
	f := newCheckInFixture(t)

	view, err := f.svc.OpenQR(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, view.MaxUses, "zero falls back to the configured default")
	assert.NotEmpty(t, view.Secret)
	require.NotNil(t, f.tokens.created)
	assert.Equal(t, models.TokenKindQR, f.tokens.created.Kind)
	// token dies with the window: 11:00 plus the 30m grace
	assert.Equal(t, time.Date(2026, 4, 10, 11, 30, 0, 0, time.UTC), f.tokens.created.ExpiresAt)
}

func TestOpenQRRejectsOutsideWindow(t *testing.T) {
	f := newCheckInFixture(t)
	f.now = time.Date(2026, 4, 10, 6, 0, 0, 0, time.UTC)

	_, err := f.svc.OpenQR(context.Background(), "sess-1", 0)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, CodeWindowNotActive, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestOpenQRRejectsProcessWithoutAttendance(t *testing.T) {
	f := newCheckInFixture(t)
	f.svc.processes = &mockCheckInProcesses{processes: map[string]*models.Process{
		"proc-1": {ID: "proc-1", ProjectID: "proj-1", RequiresAttendance: false},
	}}

	_, err := f.svc.OpenQR(context.Background(), "sess-1", 0)
	require.Error(t, err)
	assert.Equal(t, CodeAttendanceNotRequired, appErrors.FromError(err).Code)
}

func TestActivateManualHasNoCapacity(t *testing.T) {
	f := newCheckInFixture(t)

	token, err := f.svc.ActivateManual(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, models.TokenKindManual, token.Kind)
	assert.Zero(t, token.MaxUses)
	assert.Equal(t, -1, token.Remaining())
}

func TestCheckInQRHappyPath(t *testing.T) {
	f := newCheckInFixture(t)
	f.withQRToken("secret-1")

	attendance, err := f.svc.CheckInQR(context.Background(), studentActor(), QRCheckInRequest{SessionID: "sess-1", Secret: "secret-1"})
	require.NoError(t, err)
	assert.Equal(t, models.CheckInQR, attendance.Method)
	assert.Equal(t, models.AttendanceRecorded, attendance.State)
	assert.Equal(t, "tok-1", f.attendances.tokenID)
	assert.Equal(t, f.now, attendance.CheckedInAt)
}

func TestCheckInQRRejectsWrongSecret(t *testing.T) {
	f := newCheckInFixture(t)
	f.withQRToken("secret-1")

	_, err := f.svc.CheckInQR(context.Background(), studentActor(), QRCheckInRequest{SessionID: "sess-1", Secret: "guess"})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidToken, appErrors.FromError(err).Code)
}

func TestCheckInQRRejectsWithoutActiveToken(t *testing.T) {
	f := newCheckInFixture(t)

	_, err := f.svc.CheckInQR(context.Background(), studentActor(), QRCheckInRequest{SessionID: "sess-1", Secret: "secret-1"})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidToken, appErrors.FromError(err).Code)
}

func TestCheckInQRSurfacesExhaustedCapacity(t *testing.T) {
	f := newCheckInFixture(t)
	f.withQRToken("secret-1")
	f.attendances.recordErr = repository.ErrTokenExhausted

	_, err := f.svc.CheckInQR(context.Background(), studentActor(), QRCheckInRequest{SessionID: "sess-1", Secret: "secret-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, CodeTokenExhausted, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestCheckInQRSurfacesDuplicate(t *testing.T) {
	f := newCheckInFixture(t)
	f.withQRToken("secret-1")
	f.attendances.recordErr = repository.ErrDuplicateAttendance

	_, err := f.svc.CheckInQR(context.Background(), studentActor(), QRCheckInRequest{SessionID: "sess-1", Secret: "secret-1"})
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyCheckedIn, appErrors.FromError(err).Code)
}

func TestCheckInQRRejectsNonParticipant(t *testing.T) {
	f := newCheckInFixture(t)
	f.withQRToken("secret-1")
	f.participations.enrolled = false

	_, err := f.svc.CheckInQR(context.Background(), studentActor(), QRCheckInRequest{SessionID: "sess-1", Secret: "secret-1"})
	require.Error(t, err)
	assert.Equal(t, CodeNotAParticipant, appErrors.FromError(err).Code)
}

func TestCheckInManualNeedsOpenWindow(t *testing.T) {
	f := newCheckInFixture(t)

	_, err := f.svc.CheckInManual(context.Background(), ManualCheckInRequest{SessionID: "sess-1", StudentCode: "S001"})
	require.Error(t, err)
	assert.Equal(t, CodeWindowNotActive, appErrors.FromError(err).Code)
}

func TestCheckInManualResolvesStudentByCode(t *testing.T) {
	f := newCheckInFixture(t)
	f.tokens.active[models.TokenKindManual] = &models.CheckInToken{
		ID:        "tok-m",
		SessionID: "sess-1",
		Kind:      models.TokenKindManual,
		ExpiresAt: f.now.Add(time.Hour),
	}

	attendance, err := f.svc.CheckInManual(context.Background(), ManualCheckInRequest{SessionID: "sess-1", StudentCode: "S001"})
	require.NoError(t, err)
	assert.Equal(t, models.CheckInManual, attendance.Method)
	assert.Equal(t, "rec-1", attendance.StudentRecordID)
	assert.Equal(t, "tok-m", f.attendances.tokenID)
}
