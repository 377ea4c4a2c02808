package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

type processRepo interface {
	FindByID(ctx context.Context, id string) (*models.Process, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Process, error)
	Create(ctx context.Context, process *models.Process) error
	Update(ctx context.Context, process *models.Process) error
	Delete(ctx context.Context, id string) error
}

type processProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

// ProcessService manages the stages of a project. Every mutation is gated on
// the owning project still being PLANNED.
type ProcessService struct {
	processes processRepo
	projects  processProjectRepo
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewProcessService constructs ProcessService.
func NewProcessService(processes processRepo, projects processProjectRepo, logger *zap.Logger) *ProcessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessService{processes: processes, projects: projects, validate: validator.New(), logger: logger}
}

// ProcessRequest carries the payload for process creation and updates.
type ProcessRequest struct {
	Name               string   `json:"name" validate:"required,min=3,max=200"`
	Description        string   `json:"description" validate:"max=2000"`
	RecordingType      string   `json:"recording_type" validate:"required,oneof=ATTENDANCE HOURS MIXED"`
	AssignedHours      *int     `json:"assigned_hours" validate:"omitempty,min=1"`
	MinGrade           *float64 `json:"min_grade" validate:"omitempty,min=0,max=20"`
	RequiresAttendance bool     `json:"requires_attendance"`
	Order              int      `json:"order" validate:"min=0"`
}

func (s *ProcessService) checkPayload(req ProcessRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid process payload")
	}
	recordingType := models.RecordingType(req.RecordingType)
	switch recordingType {
	case models.RecordingHours:
		if req.AssignedHours == nil {
			return appErrors.Clone(appErrors.ErrValidation, "hours processes require assigned hours")
		}
	case models.RecordingMixed:
		if req.AssignedHours == nil {
			return appErrors.Clone(appErrors.ErrValidation, "mixed processes require assigned hours")
		}
		if req.MinGrade == nil {
			return appErrors.Clone(appErrors.ErrValidation, "mixed processes require a minimum grade")
		}
	}
	return nil
}

// Create adds a process to a PLANNED project.
func (s *ProcessService) Create(ctx context.Context, projectID string, req ProcessRequest) (*models.Process, error) {
	if err := s.checkPayload(req); err != nil {
		return nil, err
	}
	if err := s.requirePlanned(ctx, projectID); err != nil {
		return nil, err
	}
	process := &models.Process{
		ProjectID:          projectID,
		Name:               req.Name,
		Description:        req.Description,
		RecordingType:      models.RecordingType(req.RecordingType),
		AssignedHours:      req.AssignedHours,
		MinGrade:           req.MinGrade,
		RequiresAttendance: req.RequiresAttendance,
		Order:              req.Order,
	}
	if err := s.processes.Create(ctx, process); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create process")
	}
	s.logger.Info("process created",
		zap.String("project_id", projectID),
		zap.String("process_id", process.ID))
	return process, nil
}

// Update edits a process of a PLANNED project.
func (s *ProcessService) Update(ctx context.Context, processID string, req ProcessRequest) (*models.Process, error) {
	if err := s.checkPayload(req); err != nil {
		return nil, err
	}
	process, err := s.loadProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePlanned(ctx, process.ProjectID); err != nil {
		return nil, err
	}
	process.Name = req.Name
	process.Description = req.Description
	process.RecordingType = models.RecordingType(req.RecordingType)
	process.AssignedHours = req.AssignedHours
	process.MinGrade = req.MinGrade
	process.RequiresAttendance = req.RequiresAttendance
	process.Order = req.Order
	if err := s.processes.Update(ctx, process); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update process")
	}
	return process, nil
}

// Delete removes a process of a PLANNED project.
func (s *ProcessService) Delete(ctx context.Context, processID string) error {
	process, err := s.loadProcess(ctx, processID)
	if err != nil {
		return err
	}
	if err := s.requirePlanned(ctx, process.ProjectID); err != nil {
		return err
	}
	if err := s.processes.Delete(ctx, processID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete process")
	}
	s.logger.Info("process deleted",
		zap.String("project_id", process.ProjectID),
		zap.String("process_id", processID))
	return nil
}

// ListByProject returns the processes of a project in declared order.
func (s *ProcessService) ListByProject(ctx context.Context, projectID string) ([]models.Process, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	processes, err := s.processes.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list processes")
	}
	return processes, nil
}

func (s *ProcessService) requirePlanned(ctx context.Context, projectID string) error {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.State != models.ProjectStatePlanned {
		return appErrors.Conflict(CodeProjectNotPlanned, "project schedule is frozen after publication")
	}
	return nil
}

func (s *ProcessService) loadProcess(ctx context.Context, id string) (*models.Process, error) {
	process, err := s.processes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	return process, nil
}
