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
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions map[string]*models.Session
	batch    []models.Session
	deleted  []string
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) ListByProcess(ctx context.Context, processID string) ([]models.Session, error) {
	var list []models.Session
	for _, s := range m.sessions {
		if s.SessionableID == processID {
			list = append(list, *s)
		}
	}
	return list, nil
}

func (m *mockSessionRepo) CreateBatch(ctx context.Context, sessions []models.Session) error {
	m.batch = sessions
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.Session) error {
	if m.sessions == nil {
		m.sessions = map[string]*models.Session{}
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSessionProcesses struct {
	processes map[string]*models.Process
}

func (m *mockSessionProcesses) FindByID(ctx context.Context, id string) (*models.Process, error) {
	if p, ok := m.processes[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockSessionProjects struct {
	projects map[string]*models.Project
}

func (m *mockSessionProjects) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockSessionCatalog struct {
	period *models.Period
}

func (m *mockSessionCatalog) FindPeriodByID(ctx context.Context, id string) (*models.Period, error) {
	if m.period == nil {
		return nil, sql.ErrNoRows
	}
	return m.period, nil
}

func sessionFixture() (*mockSessionRepo, *SessionService) {
	repo := &mockSessionRepo{sessions: map[string]*models.Session{}}
	svc := NewSessionService(
		repo,
		&mockSessionProcesses{processes: map[string]*models.Process{
			"proc-1": {ID: "proc-1", ProjectID: "proj-1", RequiresAttendance: true},
		}},
		&mockSessionProjects{projects: map[string]*models.Project{
			"proj-1": {ID: "proj-1", PeriodID: "per-1", State: models.ProjectStatePlanned},
		}},
		&mockSessionCatalog{period: &models.Period{
			ID:        "per-1",
			StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		}},
		nil,
	)
	return repo, svc
}

func TestCreateBatchSchedulesAllSlots(t *testing.T) {
	repo, svc := sessionFixture()

	sessions, err := svc.CreateBatch(context.Background(), "proc-1", []SessionRequest{
		{Date: "2026-04-10", StartTime: "09:00", EndTime: "11:00"},
		{Date: "2026-04-17", StartTime: "09:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Len(t, repo.batch, 2)
	assert.Equal(t, models.SessionableProcess, sessions[0].SessionableKind)
	assert.Equal(t, "proc-1", sessions[0].SessionableID)
}

func TestCreateBatchRejectsSlotOutsidePeriod(t *testing.T) {
	repo, svc := sessionFixture()

	_, err := svc.CreateBatch(context.Background(), "proc-1", []SessionRequest{
		{Date: "2026-04-10", StartTime: "09:00", EndTime: "11:00"},
		{Date: "2026-09-01", StartTime: "09:00", EndTime: "11:00"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, CodeOutOfPeriod, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Nil(t, repo.batch, "no slot may land when one is rejected")
}

func TestCreateBatchRejectsInvertedSlot(t *testing.T) {
	repo, svc := sessionFixture()

	_, err := svc.CreateBatch(context.Background(), "proc-1", []SessionRequest{
		{Date: "2026-04-10", StartTime: "11:00", EndTime: "09:00"},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Nil(t, repo.batch)
}

func TestCreateBatchRejectsPublishedProject(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]*models.Session{}}
	svc := NewSessionService(
		repo,
		&mockSessionProcesses{processes: map[string]*models.Process{
			"proc-1": {ID: "proc-1", ProjectID: "proj-1"},
		}},
		&mockSessionProjects{projects: map[string]*models.Project{
			"proj-1": {ID: "proj-1", PeriodID: "per-1", State: models.ProjectStateInProgress},
		}},
		&mockSessionCatalog{},
		nil,
	)

	_, err := svc.CreateBatch(context.Background(), "proc-1", []SessionRequest{
		{Date: "2026-04-10", StartTime: "09:00", EndTime: "11:00"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, CodeProjectNotPlanned, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestUpdateReschedulesWithinPeriod(t *testing.T) {
	repo, svc := sessionFixture()
	repo.sessions["sess-1"] = &models.Session{
		ID:              "sess-1",
		SessionableKind: models.SessionableProcess,
		SessionableID:   "proc-1",
		Date:            time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:00",
		EndTime:         "11:00",
	}

	session, err := svc.Update(context.Background(), "sess-1", SessionRequest{Date: "2026-05-01", StartTime: "14:00", EndTime: "16:00"})
	require.NoError(t, err)
	assert.Equal(t, "14:00", session.StartTime)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), session.Date)
}
