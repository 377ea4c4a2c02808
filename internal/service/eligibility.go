package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

// Decision codes returned by the eligibility evaluation. They are part of
// the API contract: new codes append, existing ones never change meaning.
const (
	CodeEnrolled                 = "ENROLLED"
	CodeDifferentEPSite          = "DIFFERENT_EP_SEDE"
	CodeAlreadyEnrolled          = "ALREADY_ENROLLED"
	CodeNotEnrolledCurrentPeriod = "NOT_ENROLLED_CURRENT_PERIOD"
	CodeLevelMismatch            = "LEVEL_MISMATCH"
	CodePendingLinkedPrev        = "PENDING_LINKED_PREV"
)

// Decision is the outcome of an eligibility evaluation.
type Decision struct {
	Eligible bool   `json:"eligible"`
	Code     string `json:"code"`
}

// EligibilityFacts carries everything the decision procedure consults.
// Gathering is separated from deciding so the ordered rules stay a pure
// function shared verbatim by Enroll and the staff candidates view.
type EligibilityFacts struct {
	Record           models.StudentRecord
	Project          models.Project
	AlreadyEnrolled  bool
	Matriculation    *models.Matriculation
	HasPendingLinked bool
}

// Evaluate applies the enrollment rules in contract order; the first failing
// rule wins.
func Evaluate(facts EligibilityFacts) Decision {
	if facts.Record.EPSiteID != facts.Project.EPSiteID {
		return Decision{Code: CodeDifferentEPSite}
	}
	if facts.AlreadyEnrolled {
		return Decision{Code: CodeAlreadyEnrolled}
	}
	if facts.Project.Type == models.ProjectTypeFree {
		return Decision{Eligible: true, Code: CodeEnrolled}
	}
	if facts.Matriculation == nil {
		return Decision{Code: CodeNotEnrolledCurrentPeriod}
	}
	if facts.Project.Level == nil || facts.Matriculation.Cycle != *facts.Project.Level {
		return Decision{Code: CodeLevelMismatch}
	}
	if facts.HasPendingLinked {
		return Decision{Code: CodePendingLinkedPrev}
	}
	return Decision{Eligible: true, Code: CodeEnrolled}
}

type eligibilityParticipationRepo interface {
	ExistsEnrolled(ctx context.Context, kind models.ParticipableKind, participableID, studentRecordID string) (bool, error)
	HasPendingLinked(ctx context.Context, studentRecordID, epSiteID string, before time.Time, excludeProjectID string) (bool, error)
}

type eligibilityCatalogRepo interface {
	FindPeriodByID(ctx context.Context, id string) (*models.Period, error)
	FindMatriculation(ctx context.Context, studentRecordID, periodID string) (*models.Matriculation, error)
}

// EligibilityService gathers facts from live state and runs the evaluator.
// It never mutates anything; participation creation belongs to the caller.
type EligibilityService struct {
	participations eligibilityParticipationRepo
	catalog        eligibilityCatalogRepo
	logger         *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(participations eligibilityParticipationRepo, catalog eligibilityCatalogRepo, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{participations: participations, catalog: catalog, logger: logger}
}

// Check evaluates whether the student record may enroll in the project.
func (s *EligibilityService) Check(ctx context.Context, record models.StudentRecord, project models.Project) (Decision, error) {
	facts := EligibilityFacts{Record: record, Project: project}

	if record.EPSiteID == project.EPSiteID {
		enrolled, err := s.participations.ExistsEnrolled(ctx, models.ParticipableProject, project.ID, record.ID)
		if err != nil {
			return Decision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing participation")
		}
		facts.AlreadyEnrolled = enrolled

		if project.Type == models.ProjectTypeLinked && !enrolled {
			period, err := s.catalog.FindPeriodByID(ctx, project.PeriodID)
			if err != nil {
				if err == sql.ErrNoRows {
					return Decision{}, appErrors.Clone(appErrors.ErrNotFound, "project period not found")
				}
				return Decision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project period")
			}
			mat, err := s.catalog.FindMatriculation(ctx, record.ID, project.PeriodID)
			if err != nil {
				return Decision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matriculation")
			}
			facts.Matriculation = mat

			pending, err := s.participations.HasPendingLinked(ctx, record.ID, project.EPSiteID, period.StartDate, project.ID)
			if err != nil {
				return Decision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending linked participation")
			}
			facts.HasPendingLinked = pending
		}
	}

	return Evaluate(facts), nil
}
