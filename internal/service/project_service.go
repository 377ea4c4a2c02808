package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

// Conflict and rule codes raised by project lifecycle operations.
const (
	CodeInvalidProjectState = "INVALID_PROJECT_STATE"
	CodeProjectNotPlanned   = "PROJECT_NOT_PLANNED"
	CodeLevelTaken          = "LEVEL_TAKEN"
	CodeProjectCodeTaken    = "PROJECT_CODE_TAKEN"
)

type projectRepo interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	FindByID(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	UpdateState(ctx context.Context, id string, from, to models.ProjectState) (bool, error)
	TakenLevels(ctx context.Context, epSiteID, periodID string) ([]int, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ListVisibleForStudent(ctx context.Context, epSiteID, periodID string) ([]models.Project, error)
}

type projectProcessRepo interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Process, error)
}

type projectSessionRepo interface {
	ListByProcess(ctx context.Context, processID string) ([]models.Session, error)
}

type projectCatalogRepo interface {
	FindPeriodByID(ctx context.Context, id string) (*models.Period, error)
	FindEPSiteByID(ctx context.Context, id string) (*models.EPSite, error)
	CurrentPeriod(ctx context.Context) (*models.Period, error)
	FindMatriculation(ctx context.Context, studentRecordID, periodID string) (*models.Matriculation, error)
}

type projectStudentRecordRepo interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
}

type projectParticipationRepo interface {
	HasPendingLinked(ctx context.Context, studentRecordID, epSiteID string, before time.Time, excludeProjectID string) (bool, error)
	ListEnrolledProjectIDs(ctx context.Context, studentRecordID string) ([]string, error)
}

// ProjectService drives the project lifecycle and its catalog views.
type ProjectService struct {
	projects       projectRepo
	processes      projectProcessRepo
	sessions       projectSessionRepo
	catalog        projectCatalogRepo
	records        projectStudentRecordRepo
	participations projectParticipationRepo
	validate       *validator.Validate
	logger         *zap.Logger
	maxLevel       int
}

// NewProjectService constructs ProjectService. maxLevel caps the level range
// offered by AvailableLevels.
func NewProjectService(
	projects projectRepo,
	processes projectProcessRepo,
	sessions projectSessionRepo,
	catalog projectCatalogRepo,
	records projectStudentRecordRepo,
	participations projectParticipationRepo,
	maxLevel int,
	logger *zap.Logger,
) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLevel <= 0 {
		maxLevel = 10
	}
	return &ProjectService{
		projects:       projects,
		processes:      processes,
		sessions:       sessions,
		catalog:        catalog,
		records:        records,
		participations: participations,
		validate:       validator.New(),
		logger:         logger,
		maxLevel:       maxLevel,
	}
}

// CreateProjectRequest carries the staff payload for project creation.
type CreateProjectRequest struct {
	EPSiteID            string  `json:"ep_site_id" validate:"required"`
	PeriodID            string  `json:"period_id" validate:"required"`
	Code                string  `json:"code" validate:"required,min=3,max=30"`
	Title               string  `json:"title" validate:"required,min=3,max=200"`
	Description         string  `json:"description" validate:"max=2000"`
	Type                string  `json:"type" validate:"required,oneof=FREE LINKED"`
	Modality            string  `json:"modality" validate:"required,oneof=ONSITE REMOTE MIXED"`
	Level               *int    `json:"level" validate:"omitempty,min=1"`
	PlannedHours        int     `json:"planned_hours" validate:"required,min=1"`
	MinParticipantHours *int    `json:"min_participant_hours" validate:"omitempty,min=1"`
}

// Create registers a new PLANNED project. LINKED projects must carry a level
// and at most one live LINKED project may hold a level per EP-site and period.
func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest) (*models.Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	projectType := models.ProjectType(req.Type)
	if projectType == models.ProjectTypeLinked {
		if req.Level == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "linked projects require a level")
		}
		if *req.Level > s.maxLevel {
			return nil, appErrors.Clone(appErrors.ErrValidation, "level exceeds the supported range")
		}
	} else if req.Level != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "free projects cannot carry a level")
	}

	if _, err := s.catalog.FindPeriodByID(ctx, req.PeriodID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	if _, err := s.catalog.FindEPSiteByID(ctx, req.EPSiteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ep-site not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ep-site")
	}

	taken, err := s.projects.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check project code")
	}
	if taken {
		return nil, appErrors.Conflict(CodeProjectCodeTaken, "project code already in use")
	}

	if projectType == models.ProjectTypeLinked {
		levels, err := s.projects.TakenLevels(ctx, req.EPSiteID, req.PeriodID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load taken levels")
		}
		for _, lvl := range levels {
			if lvl == *req.Level {
				return nil, appErrors.Rule(CodeLevelTaken, "a linked project already exists for this level")
			}
		}
	}

	project := &models.Project{
		EPSiteID:            req.EPSiteID,
		PeriodID:            req.PeriodID,
		Code:                req.Code,
		Title:               req.Title,
		Description:         req.Description,
		Type:                projectType,
		Modality:            models.ProjectModality(req.Modality),
		State:               models.ProjectStatePlanned,
		Level:               req.Level,
		PlannedHours:        req.PlannedHours,
		MinParticipantHours: req.MinParticipantHours,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("code", project.Code),
		zap.String("type", string(project.Type)))
	return project, nil
}

// List returns projects matching the filter together with pagination info.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns the expanded management view of a project: the project itself,
// its processes in order, and the sessions of each process.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.ProjectDetail, error) {
	project, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	processes, err := s.processes.ListByProject(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list processes")
	}
	sessions := make(map[string][]models.Session, len(processes))
	for _, process := range processes {
		list, err := s.sessions.ListByProcess(ctx, process.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
		}
		sessions[process.ID] = list
	}
	return &models.ProjectDetail{Project: *project, Processes: processes, Sessions: sessions}, nil
}

// Publish transitions PLANNED to IN_PROGRESS. The transition is irreversible:
// once published, the project's schedule is frozen.
func (s *ProjectService) Publish(ctx context.Context, id string) (*models.Project, error) {
	return s.transition(ctx, id, models.ProjectStatePlanned, models.ProjectStateInProgress)
}

// Close transitions IN_PROGRESS to CLOSED.
func (s *ProjectService) Close(ctx context.Context, id string) (*models.Project, error) {
	return s.transition(ctx, id, models.ProjectStateInProgress, models.ProjectStateClosed)
}

// Cancel aborts a project from PLANNED or IN_PROGRESS. Cancelling releases
// the level held by a LINKED project.
func (s *ProjectService) Cancel(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	switch project.State {
	case models.ProjectStatePlanned, models.ProjectStateInProgress:
		return s.transition(ctx, id, project.State, models.ProjectStateCancelled)
	default:
		return nil, appErrors.Conflict(CodeInvalidProjectState, "project cannot be cancelled from its current state")
	}
}

func (s *ProjectService) transition(ctx context.Context, id string, from, to models.ProjectState) (*models.Project, error) {
	project, err := s.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	applied, err := s.projects.UpdateState(ctx, id, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition project")
	}
	if !applied {
		return nil, appErrors.Conflict(CodeInvalidProjectState, "project is not in the expected state")
	}
	project.State = to
	s.logger.Info("project transitioned",
		zap.String("project_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return project, nil
}

// AvailableLevels returns the levels still open for a LINKED project in the
// EP-site and period.
func (s *ProjectService) AvailableLevels(ctx context.Context, epSiteID, periodID string) ([]int, error) {
	taken, err := s.projects.TakenLevels(ctx, epSiteID, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load taken levels")
	}
	occupied := make(map[int]struct{}, len(taken))
	for _, lvl := range taken {
		occupied[lvl] = struct{}{}
	}
	available := make([]int, 0, s.maxLevel)
	for lvl := 1; lvl <= s.maxLevel; lvl++ {
		if _, ok := occupied[lvl]; !ok {
			available = append(available, lvl)
		}
	}
	return available, nil
}

// StudentProjectView is the self-service listing: the visible project pool
// plus the student's standing and current enrollments.
type StudentProjectView struct {
	Context     models.StudentProjectContext `json:"context"`
	Projects    []models.Project             `json:"projects"`
	EnrolledIDs []string                     `json:"enrolled_project_ids"`
}

// ListForStudent resolves the student's context and returns the IN_PROGRESS
// projects of their EP-site for the current period.
func (s *ProjectService) ListForStudent(ctx context.Context, actor *models.Actor) (*StudentProjectView, error) {
	if actor == nil || actor.StudentRecordID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no student record attached to the actor")
	}
	record, err := s.records.FindByID(ctx, actor.StudentRecordID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	period, err := s.catalog.CurrentPeriod(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current academic period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current period")
	}

	view := &StudentProjectView{
		Context: models.StudentProjectContext{EPSiteID: record.EPSiteID, PeriodID: period.ID},
	}

	mat, err := s.catalog.FindMatriculation(ctx, record.ID, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matriculation")
	}
	if mat != nil {
		cycle := mat.Cycle
		view.Context.CurrentCycle = &cycle
	}

	pending, err := s.participations.HasPendingLinked(ctx, record.ID, record.EPSiteID, period.StartDate, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending linked participation")
	}
	view.Context.HasPendingLinked = pending

	projects, err := s.projects.ListVisibleForStudent(ctx, record.EPSiteID, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list visible projects")
	}
	view.Projects = projects

	enrolled, err := s.participations.ListEnrolledProjectIDs(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	view.EnrolledIDs = enrolled
	return view, nil
}

func (s *ProjectService) loadProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}
