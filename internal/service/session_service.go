package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

// CodeOutOfPeriod rejects sessions scheduled outside the project's period.
const CodeOutOfPeriod = "OUT_OF_PERIOD"

type sessionRepo interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListByProcess(ctx context.Context, processID string) ([]models.Session, error)
	CreateBatch(ctx context.Context, sessions []models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type sessionProcessRepo interface {
	FindByID(ctx context.Context, id string) (*models.Process, error)
}

type sessionProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type sessionCatalogRepo interface {
	FindPeriodByID(ctx context.Context, id string) (*models.Period, error)
}

// SessionService schedules process sessions. Mutations are gated on the
// owning project being PLANNED, and every session date must land inside the
// project's academic period.
type SessionService struct {
	sessions  sessionRepo
	processes sessionProcessRepo
	projects  sessionProjectRepo
	catalog   sessionCatalogRepo
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(
	sessions sessionRepo,
	processes sessionProcessRepo,
	projects sessionProjectRepo,
	catalog sessionCatalogRepo,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:  sessions,
		processes: processes,
		projects:  projects,
		catalog:   catalog,
		validate:  validator.New(),
		logger:    logger,
	}
}

// SessionRequest carries one session slot. Date uses 2006-01-02, times use
// 24h HH:MM.
type SessionRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// CreateBatch schedules several sessions atomically: every slot is validated
// against the project period first, and the batch lands in one transaction.
// One bad slot rejects the whole batch.
func (s *SessionService) CreateBatch(ctx context.Context, processID string, reqs []SessionRequest) ([]models.Session, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty session batch")
	}
	process, err := s.loadProcessForWrite(ctx, processID)
	if err != nil {
		return nil, err
	}
	period, err := s.projectPeriod(ctx, process.ProjectID)
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(reqs))
	for i, req := range reqs {
		session, err := s.buildSession(processID, req, period)
		if err != nil {
			appErr := appErrors.FromError(err)
			return nil, appErrors.Clone(appErr, fmt.Sprintf("session %d: %s", i+1, appErr.Message))
		}
		sessions = append(sessions, *session)
	}

	if err := s.sessions.CreateBatch(ctx, sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sessions")
	}
	s.logger.Info("sessions scheduled",
		zap.String("process_id", processID),
		zap.Int("count", len(sessions)))
	return sessions, nil
}

// Update reschedules a session of a PLANNED project.
func (s *SessionService) Update(ctx context.Context, sessionID string, req SessionRequest) (*models.Session, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	process, err := s.loadProcessForWrite(ctx, session.SessionableID)
	if err != nil {
		return nil, err
	}
	period, err := s.projectPeriod(ctx, process.ProjectID)
	if err != nil {
		return nil, err
	}
	updated, err := s.buildSession(session.SessionableID, req, period)
	if err != nil {
		return nil, err
	}
	session.Date = updated.Date
	session.StartTime = updated.StartTime
	session.EndTime = updated.EndTime
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// Delete removes a session of a PLANNED project.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := s.loadProcessForWrite(ctx, session.SessionableID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// Get returns one session for editing.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.loadSession(ctx, sessionID)
}

// ListByProcess returns the sessions of a process ordered by date.
func (s *SessionService) ListByProcess(ctx context.Context, processID string) ([]models.Session, error) {
	if _, err := s.processes.FindByID(ctx, processID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	sessions, err := s.sessions.ListByProcess(ctx, processID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

func (s *SessionService) buildSession(processID string, req SessionRequest, period *models.Period) (*models.Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid session date")
	}
	start, _ := time.Parse("15:04", req.StartTime)
	end, _ := time.Parse("15:04", req.EndTime)
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session end must be after its start")
	}
	if !period.Contains(date) {
		return nil, appErrors.Rule(CodeOutOfPeriod, "session date falls outside the project period")
	}
	return &models.Session{
		SessionableKind: models.SessionableProcess,
		SessionableID:   processID,
		Date:            date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
	}, nil
}

func (s *SessionService) loadProcessForWrite(ctx context.Context, processID string) (*models.Process, error) {
	process, err := s.processes.FindByID(ctx, processID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	project, err := s.projects.FindByID(ctx, process.ProjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.State != models.ProjectStatePlanned {
		return nil, appErrors.Conflict(CodeProjectNotPlanned, "project schedule is frozen after publication")
	}
	return process, nil
}

func (s *SessionService) projectPeriod(ctx context.Context, projectID string) (*models.Period, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	period, err := s.catalog.FindPeriodByID(ctx, project.PeriodID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

func (s *SessionService) loadSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}
