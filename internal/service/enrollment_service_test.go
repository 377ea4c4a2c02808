package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/internal/repository"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

type mockEnrollParticipations struct {
	createErr error
	created   *models.Participation
	details   []models.ParticipationDetail
}

func (m *mockEnrollParticipations) Create(ctx context.Context, participation *models.Participation) error {
	if m.createErr != nil {
		return m.createErr
	}
	participation.ID = "part-1"
	m.created = participation
	return nil
}

func (m *mockEnrollParticipations) ListEnrolledDetails(ctx context.Context, kind models.ParticipableKind, participableID string) ([]models.ParticipationDetail, error) {
	return m.details, nil
}

type mockEnrollRecords struct {
	records map[string]*models.StudentRecord
	active  []models.StudentRecord
}

func (m *mockEnrollRecords) FindByID(ctx context.Context, id string) (*models.StudentRecord, error) {
	if record, ok := m.records[id]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollRecords) ListActiveByEPSite(ctx context.Context, epSiteID string, limit int) ([]models.StudentRecord, error) {
	return m.active, nil
}

type mockEnrollProjects struct {
	projects map[string]*models.Project
}

func (m *mockEnrollProjects) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if project, ok := m.projects[id]; ok {
		return project, nil
	}
	return nil, sql.ErrNoRows
}

type stubChecker struct {
	decision Decision
}

func (s *stubChecker) Check(ctx context.Context, record models.StudentRecord, project models.Project) (Decision, error) {
	return s.decision, nil
}

func activeRecord() *models.StudentRecord {
	r := baseRecord()
	return &r
}

func openProject() *models.Project {
	p := freeProject()
	return &p
}

func studentActor() *models.Actor {
	return models.NewActor(&models.ActorClaims{
		UserID:          "user-1",
		StudentRecordID: "rec-1",
		Roles:           []models.Role{models.RoleStudent},
	})
}

func TestEnrollHappyPath(t *testing.T) {
	participations := &mockEnrollParticipations{}
	svc := NewEnrollmentService(
		participations,
		&mockEnrollRecords{records: map[string]*models.StudentRecord{"rec-1": activeRecord()}},
		&mockEnrollProjects{projects: map[string]*models.Project{"proj-1": openProject()}},
		&stubChecker{decision: Decision{Eligible: true, Code: CodeEnrolled}},
		nil,
	)

	participation, err := svc.Enroll(context.Background(), studentActor(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "part-1", participation.ID)
	assert.Equal(t, models.ParticipationEnrolled, participation.State)
	assert.Equal(t, models.ParticipableProject, participation.ParticipableKind)
	require.NotNil(t, participations.created)
	assert.Equal(t, "rec-1", participations.created.StudentRecordID)
}

func TestEnrollRejectsIneligible(t *testing.T) {
	svc := NewEnrollmentService(
		&mockEnrollParticipations{},
		&mockEnrollRecords{records: map[string]*models.StudentRecord{"rec-1": activeRecord()}},
		&mockEnrollProjects{projects: map[string]*models.Project{"proj-1": openProject()}},
		&stubChecker{decision: Decision{Code: CodeLevelMismatch}},
		nil,
	)

	_, err := svc.Enroll(context.Background(), studentActor(), "proj-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, CodeLevelMismatch, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestEnrollDuplicateRaceSurfacesAsAlreadyEnrolled(t *testing.T) {
	svc := NewEnrollmentService(
		&mockEnrollParticipations{createErr: repository.ErrDuplicateParticipation},
		&mockEnrollRecords{records: map[string]*models.StudentRecord{"rec-1": activeRecord()}},
		&mockEnrollProjects{projects: map[string]*models.Project{"proj-1": openProject()}},
		&stubChecker{decision: Decision{Eligible: true, Code: CodeEnrolled}},
		nil,
	)

	_, err := svc.Enroll(context.Background(), studentActor(), "proj-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, CodeAlreadyEnrolled, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestEnrollRejectsUnpublishedProject(t *testing.T) {
	project := openProject()
	project.State = models.ProjectStatePlanned
	svc := NewEnrollmentService(
		&mockEnrollParticipations{},
		&mockEnrollRecords{records: map[string]*models.StudentRecord{"rec-1": activeRecord()}},
		&mockEnrollProjects{projects: map[string]*models.Project{"proj-1": project}},
		&stubChecker{decision: Decision{Eligible: true, Code: CodeEnrolled}},
		nil,
	)

	_, err := svc.Enroll(context.Background(), studentActor(), "proj-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, CodeInvalidProjectState, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestEnrollRequiresStudentRecord(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollParticipations{}, &mockEnrollRecords{}, &mockEnrollProjects{}, &stubChecker{}, nil)

	actor := models.NewActor(&models.ActorClaims{UserID: "user-2", Roles: []models.Role{models.RoleStudent}})
	_, err := svc.Enroll(context.Background(), actor, "proj-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}

func TestListCandidatesMirrorsChecker(t *testing.T) {
	records := []models.StudentRecord{
		{ID: "rec-1", StudentCode: "S001", FullName: "Ana Quispe", EPSiteID: "ep-1", State: models.StudentRecordActive},
		{ID: "rec-2", StudentCode: "S002", FullName: "Luis Mamani", EPSiteID: "ep-1", State: models.StudentRecordActive},
	}
	svc := NewEnrollmentService(
		&mockEnrollParticipations{},
		&mockEnrollRecords{active: records},
		&mockEnrollProjects{projects: map[string]*models.Project{"proj-1": openProject()}},
		&stubChecker{decision: Decision{Eligible: true, Code: CodeEnrolled}},
		nil,
	)

	candidates, err := svc.ListCandidates(context.Background(), "proj-1", 10, false)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "S001", candidates[0].StudentCode)
	assert.True(t, candidates[0].Eligible)
	assert.Equal(t, CodeEnrolled, candidates[1].Code)
}

type recordChecker struct {
	decisions map[string]Decision
}

func (r *recordChecker) Check(ctx context.Context, record models.StudentRecord, project models.Project) (Decision, error) {
	return r.decisions[record.ID], nil
}

func TestListCandidatesOnlyEligibleFilters(t *testing.T) {
	records := []models.StudentRecord{
		{ID: "rec-1", StudentCode: "S001", FullName: "Ana Quispe", EPSiteID: "ep-1", State: models.StudentRecordActive},
		{ID: "rec-2", StudentCode: "S002", FullName: "Luis Mamani", EPSiteID: "ep-1", State: models.StudentRecordActive},
	}
	svc := NewEnrollmentService(
		&mockEnrollParticipations{},
		&mockEnrollRecords{active: records},
		&mockEnrollProjects{projects: map[string]*models.Project{"proj-1": openProject()}},
		&recordChecker{decisions: map[string]Decision{
			"rec-1": {Eligible: true, Code: CodeEnrolled},
			"rec-2": {Code: CodeLevelMismatch},
		}},
		nil,
	)

	candidates, err := svc.ListCandidates(context.Background(), "proj-1", 10, true)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "S001", candidates[0].StudentCode)

	all, err := svc.ListCandidates(context.Background(), "proj-1", 10, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
