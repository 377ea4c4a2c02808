package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/internal/repository"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

type enrollmentParticipationRepo interface {
	Create(ctx context.Context, participation *models.Participation) error
	ListEnrolledDetails(ctx context.Context, kind models.ParticipableKind, participableID string) ([]models.ParticipationDetail, error)
}

type enrollmentStudentRecordRepo interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
	ListActiveByEPSite(ctx context.Context, epSiteID string, limit int) ([]models.StudentRecord, error)
}

type enrollmentProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type eligibilityChecker interface {
	Check(ctx context.Context, record models.StudentRecord, project models.Project) (Decision, error)
}

// EnrollmentService handles self-service enrollment and the staff roster and
// candidates views. The same eligibility checker backs the live enrollment
// and the read-only preview, so the two can never disagree.
type EnrollmentService struct {
	participations enrollmentParticipationRepo
	records        enrollmentStudentRecordRepo
	projects       enrollmentProjectRepo
	eligibility    eligibilityChecker
	logger         *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(
	participations enrollmentParticipationRepo,
	records enrollmentStudentRecordRepo,
	projects enrollmentProjectRepo,
	eligibility eligibilityChecker,
	logger *zap.Logger,
) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		participations: participations,
		records:        records,
		projects:       projects,
		eligibility:    eligibility,
		logger:         logger,
	}
}

// Enroll enrolls the actor's student record into the project. The eligibility
// rules run first; a concurrent duplicate losing the insert race surfaces as
// ALREADY_ENROLLED, same as the rule-level rejection.
func (s *EnrollmentService) Enroll(ctx context.Context, actor *models.Actor, projectID string) (*models.Participation, error) {
	if actor == nil || actor.StudentRecordID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no student record attached to the actor")
	}
	record, err := s.loadRecord(ctx, actor.StudentRecordID)
	if err != nil {
		return nil, err
	}
	if record.State != models.StudentRecordActive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student record is not active")
	}
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.State != models.ProjectStateInProgress {
		return nil, appErrors.Conflict(CodeInvalidProjectState, "project is not open for enrollment")
	}

	decision, err := s.eligibility.Check(ctx, *record, *project)
	if err != nil {
		return nil, err
	}
	if !decision.Eligible {
		return nil, appErrors.Rule(decision.Code, "enrollment rejected")
	}

	participation := &models.Participation{
		ParticipableKind: models.ParticipableProject,
		ParticipableID:   project.ID,
		StudentRecordID:  record.ID,
		Role:             models.ParticipationRoleStudent,
		State:            models.ParticipationEnrolled,
	}
	if err := s.participations.Create(ctx, participation); err != nil {
		if err == repository.ErrDuplicateParticipation {
			return nil, appErrors.Rule(CodeAlreadyEnrolled, "enrollment rejected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create participation")
	}

	s.logger.Info("student enrolled",
		zap.String("project_id", project.ID),
		zap.String("student_record_id", record.ID),
		zap.String("participation_id", participation.ID))
	return participation, nil
}

// ListEnrolled returns the project's roster of ENROLLED participations.
func (s *EnrollmentService) ListEnrolled(ctx context.Context, projectID string) ([]models.ParticipationDetail, error) {
	if _, err := s.loadProject(ctx, projectID); err != nil {
		return nil, err
	}
	details, err := s.participations.ListEnrolledDetails(ctx, models.ParticipableProject, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return details, nil
}

// ListCandidates previews the eligibility outcome of every active student of
// the project's EP-site. The preview runs the same decision procedure as
// Enroll and mutates nothing. With onlyEligible set, ineligible students are
// filtered out of the result.
func (s *EnrollmentService) ListCandidates(ctx context.Context, projectID string, limit int, onlyEligible bool) ([]models.Candidate, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListActiveByEPSite(ctx, project.EPSiteID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student records")
	}
	candidates := make([]models.Candidate, 0, len(records))
	for _, record := range records {
		decision, err := s.eligibility.Check(ctx, record, *project)
		if err != nil {
			return nil, err
		}
		if onlyEligible && !decision.Eligible {
			continue
		}
		candidates = append(candidates, models.Candidate{
			StudentRecordID: record.ID,
			StudentCode:     record.StudentCode,
			FullName:        record.FullName,
			Eligible:        decision.Eligible,
			Code:            decision.Code,
		})
	}
	return candidates, nil
}

func (s *EnrollmentService) loadRecord(ctx context.Context, id string) (*models.StudentRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	return record, nil
}

func (s *EnrollmentService) loadProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}
