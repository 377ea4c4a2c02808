package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/internal/repository"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

// Rule codes raised by the check-in path.
const (
	CodeWindowNotActive       = "WINDOW_NOT_ACTIVE"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeTokenExhausted        = "TOKEN_EXHAUSTED"
	CodeNotAParticipant       = "NOT_A_PARTICIPANT"
	CodeAlreadyCheckedIn      = "ALREADY_CHECKED_IN"
	CodeAttendanceNotRequired = "ATTENDANCE_NOT_REQUIRED"
)

type checkInTokenRepo interface {
	Create(ctx context.Context, token *models.CheckInToken) error
	FindActive(ctx context.Context, sessionID string, kind models.TokenKind, now time.Time) (*models.CheckInToken, error)
}

type checkInAttendanceRepo interface {
	RecordCheckIn(ctx context.Context, tokenID string, attendance *models.Attendance) error
}

type checkInSessionRepo interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type checkInProcessRepo interface {
	FindByID(ctx context.Context, id string) (*models.Process, error)
}

type checkInProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type checkInStudentRecordRepo interface {
	FindByID(ctx context.Context, id string) (*models.StudentRecord, error)
	FindActiveByCode(ctx context.Context, epSiteID, studentCode string) (*models.StudentRecord, error)
}

type checkInParticipationRepo interface {
	ExistsEnrolled(ctx context.Context, kind models.ParticipableKind, participableID, studentRecordID string) (bool, error)
}

// CheckInService opens check-in windows and records attendance through them.
// Token capacity is consumed atomically with the attendance insert, so the
// advertised capacity holds under concurrent scans.
type CheckInService struct {
	tokens         checkInTokenRepo
	attendances    checkInAttendanceRepo
	sessions       checkInSessionRepo
	processes      checkInProcessRepo
	projects       checkInProjectRepo
	records        checkInStudentRecordRepo
	participations checkInParticipationRepo
	logger         *zap.Logger

	graceBefore   time.Duration
	graceAfter    time.Duration
	defaultQRUses int

	now func() time.Time
}

// NewCheckInService constructs CheckInService.
func NewCheckInService(
	tokens checkInTokenRepo,
	attendances checkInAttendanceRepo,
	sessions checkInSessionRepo,
	processes checkInProcessRepo,
	projects checkInProjectRepo,
	records checkInStudentRecordRepo,
	participations checkInParticipationRepo,
	graceBefore, graceAfter time.Duration,
	defaultQRUses int,
	logger *zap.Logger,
) *CheckInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultQRUses <= 0 {
		defaultQRUses = 50
	}
	return &CheckInService{
		tokens:         tokens,
		attendances:    attendances,
		sessions:       sessions,
		processes:      processes,
		projects:       projects,
		records:        records,
		participations: participations,
		logger:         logger,
		graceBefore:    graceBefore,
		graceAfter:     graceAfter,
		defaultQRUses:  defaultQRUses,
		now:            time.Now,
	}
}

// sessionScope bundles a session with its owning process and project.
type sessionScope struct {
	session *models.Session
	process *models.Process
	project *models.Project
}

// QRTokenView is the staff-facing payload of an opened QR window. The secret
// travels only here; stored tokens never expose it again.
type QRTokenView struct {
	TokenID   string    `json:"token_id"`
	SessionID string    `json:"session_id"`
	Secret    string    `json:"secret"`
	MaxUses   int       `json:"max_uses"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OpenQR issues a QR token for a session whose check-in window is active.
// maxUses 0 falls back to the configured default; the token expires with the
// window.
func (s *CheckInService) OpenQR(ctx context.Context, sessionID string, maxUses int) (*QRTokenView, error) {
	scope, err := s.loadScope(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	windowEnd, err := s.requireActiveWindow(scope)
	if err != nil {
		return nil, err
	}
	if maxUses <= 0 {
		maxUses = s.defaultQRUses
	}
	secret, err := newSecret()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token secret")
	}
	token := &models.CheckInToken{
		SessionID: sessionID,
		Kind:      models.TokenKindQR,
		Secret:    secret,
		MaxUses:   maxUses,
		ExpiresAt: windowEnd,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}
	s.logger.Info("qr window opened",
		zap.String("session_id", sessionID),
		zap.String("token_id", token.ID),
		zap.Int("max_uses", maxUses))
	return &QRTokenView{
		TokenID:   token.ID,
		SessionID: sessionID,
		Secret:    secret,
		MaxUses:   maxUses,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// ActivateManual opens a manual check-in window for a session. Manual windows
// carry no capacity limit.
func (s *CheckInService) ActivateManual(ctx context.Context, sessionID string) (*models.CheckInToken, error) {
	scope, err := s.loadScope(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	windowEnd, err := s.requireActiveWindow(scope)
	if err != nil {
		return nil, err
	}
	secret, err := newSecret()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token secret")
	}
	token := &models.CheckInToken{
		SessionID: sessionID,
		Kind:      models.TokenKindManual,
		Secret:    secret,
		MaxUses:   0,
		ExpiresAt: windowEnd,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}
	s.logger.Info("manual window opened",
		zap.String("session_id", sessionID),
		zap.String("token_id", token.ID))
	return token, nil
}

// QRCheckInRequest is the student scan payload.
type QRCheckInRequest struct {
	SessionID string `json:"session_id"`
	Secret    string `json:"secret"`
}

// CheckInQR records the actor's attendance through an active QR token. The
// secret comparison is constant time; capacity and duplicates are resolved
// atomically in storage.
func (s *CheckInService) CheckInQR(ctx context.Context, actor *models.Actor, req QRCheckInRequest) (*models.Attendance, error) {
	if actor == nil || actor.StudentRecordID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no student record attached to the actor")
	}
	if req.SessionID == "" || req.Secret == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session id and secret are required")
	}
	scope, err := s.loadScope(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireActiveWindow(scope); err != nil {
		return nil, err
	}
	token, err := s.tokens.FindActive(ctx, req.SessionID, models.TokenKindQR, s.now())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Rule(CodeInvalidToken, "no active token for this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load token")
	}
	if subtle.ConstantTimeCompare([]byte(token.Secret), []byte(req.Secret)) != 1 {
		return nil, appErrors.Rule(CodeInvalidToken, "token secret mismatch")
	}
	return s.record(ctx, scope, token.ID, actor.StudentRecordID, models.CheckInQR)
}

// ManualCheckInRequest identifies the student a staff member checks in.
type ManualCheckInRequest struct {
	SessionID   string `json:"session_id"`
	StudentCode string `json:"student_code"`
}

// CheckInManual records attendance on behalf of a student, resolved by
// student code within the project's EP-site. Requires an open manual window.
func (s *CheckInService) CheckInManual(ctx context.Context, req ManualCheckInRequest) (*models.Attendance, error) {
	if req.SessionID == "" || req.StudentCode == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session id and student code are required")
	}
	scope, err := s.loadScope(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireActiveWindow(scope); err != nil {
		return nil, err
	}
	token, err := s.tokens.FindActive(ctx, req.SessionID, models.TokenKindManual, s.now())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Rule(CodeWindowNotActive, "no manual window is open for this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load token")
	}
	record, err := s.records.FindActiveByCode(ctx, scope.project.EPSiteID, req.StudentCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	return s.record(ctx, scope, token.ID, record.ID, models.CheckInManual)
}

func (s *CheckInService) record(ctx context.Context, scope sessionScope, tokenID, studentRecordID string, method models.CheckInMethod) (*models.Attendance, error) {
	enrolled, err := s.participations.ExistsEnrolled(ctx, models.ParticipableProject, scope.project.ID, studentRecordID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participation")
	}
	if !enrolled {
		return nil, appErrors.Rule(CodeNotAParticipant, "student is not enrolled in the project")
	}

	attendance := &models.Attendance{
		SessionID:       scope.session.ID,
		StudentRecordID: studentRecordID,
		Method:          method,
		CheckedInAt:     s.now().UTC(),
		State:           models.AttendanceRecorded,
	}
	if err := s.attendances.RecordCheckIn(ctx, tokenID, attendance); err != nil {
		switch err {
		case repository.ErrTokenExhausted:
			return nil, appErrors.Rule(CodeTokenExhausted, "check-in token capacity exhausted")
		case repository.ErrDuplicateAttendance:
			return nil, appErrors.Rule(CodeAlreadyCheckedIn, "attendance already recorded for this session")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
		}
	}

	s.logger.Info("attendance recorded",
		zap.String("session_id", scope.session.ID),
		zap.String("student_record_id", studentRecordID),
		zap.String("method", string(method)))
	return attendance, nil
}

// loadScope resolves a session through its process to the owning project and
// checks the attendance preconditions shared by every window operation.
func (s *CheckInService) loadScope(ctx context.Context, sessionID string) (sessionScope, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return sessionScope{}, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return sessionScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	process, err := s.processes.FindByID(ctx, session.SessionableID)
	if err != nil {
		if err == sql.ErrNoRows {
			return sessionScope{}, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return sessionScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	if !process.RequiresAttendance {
		return sessionScope{}, appErrors.Rule(CodeAttendanceNotRequired, "process does not record attendance")
	}
	project, err := s.projects.FindByID(ctx, process.ProjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return sessionScope{}, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return sessionScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.State != models.ProjectStateInProgress {
		return sessionScope{}, appErrors.Conflict(CodeInvalidProjectState, "project is not in progress")
	}
	return sessionScope{session: session, process: process, project: project}, nil
}

// requireActiveWindow checks the session window against the clock and returns
// the window end for token expiry.
func (s *CheckInService) requireActiveWindow(scope sessionScope) (time.Time, error) {
	start, end, err := scope.session.Window(s.graceBefore, s.graceAfter)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid session schedule")
	}
	now := s.now()
	if now.Before(start) || now.After(end) {
		return time.Time{}, appErrors.Rule(CodeWindowNotActive, fmt.Sprintf("check-in window runs %s to %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	return end, nil
}

func newSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
