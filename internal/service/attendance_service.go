package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/internal/repository"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/export"
)

// Supported attendance report formats.
const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
	ReportFormatPDF  = "pdf"
)

type attendanceRepo interface {
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	FindBySessionAndStudent(ctx context.Context, sessionID, studentRecordID string) (*models.Attendance, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.AttendanceDetail, error)
	Create(ctx context.Context, attendance *models.Attendance) error
	UpdateJustification(ctx context.Context, id, justification string, grantHours bool) error
	UpdateState(ctx context.Context, id string, state models.AttendanceState) error
}

type attendanceLedgerRepo interface {
	CreditHours(ctx context.Context, studentRecordID string, hours int, sourceAttendanceID string) (*models.HourRecord, error)
}

type attendanceSessionRepo interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type attendanceProcessRepo interface {
	FindByID(ctx context.Context, id string) (*models.Process, error)
}

type attendanceProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type attendanceStudentRecordRepo interface {
	FindActiveByCode(ctx context.Context, epSiteID, studentCode string) (*models.StudentRecord, error)
}

type attendanceParticipationRepo interface {
	ExistsEnrolled(ctx context.Context, kind models.ParticipableKind, participableID, studentRecordID string) (bool, error)
	ListEnrolledDetails(ctx context.Context, kind models.ParticipableKind, participableID string) ([]models.ParticipationDetail, error)
}

// AttendanceService covers the post-capture half of the attendance lifecycle:
// rosters, justified absences, validation into hour credits, and reports.
type AttendanceService struct {
	attendances    attendanceRepo
	ledger         attendanceLedgerRepo
	sessions       attendanceSessionRepo
	processes      attendanceProcessRepo
	projects       attendanceProjectRepo
	records        attendanceStudentRecordRepo
	participations attendanceParticipationRepo
	csv            *export.CSVExporter
	pdf            *export.PDFExporter
	validate       *validator.Validate
	logger         *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(
	attendances attendanceRepo,
	ledger attendanceLedgerRepo,
	sessions attendanceSessionRepo,
	processes attendanceProcessRepo,
	projects attendanceProjectRepo,
	records attendanceStudentRecordRepo,
	participations attendanceParticipationRepo,
	logger *zap.Logger,
) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendances:    attendances,
		ledger:         ledger,
		sessions:       sessions,
		processes:      processes,
		projects:       projects,
		records:        records,
		participations: participations,
		csv:            export.NewCSVExporter(),
		pdf:            export.NewPDFExporter(),
		validate:       validator.New(),
		logger:         logger,
	}
}

// ListBySession returns the attendance rows captured for a session.
func (s *AttendanceService) ListBySession(ctx context.Context, sessionID string) ([]models.AttendanceDetail, error) {
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	details, err := s.attendances.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendances")
	}
	return details, nil
}

// RosterRow pairs an enrolled participant with their attendance for one
// session, covering present and absent students alike.
type RosterRow struct {
	StudentRecordID string             `json:"student_record_id"`
	StudentCode     string             `json:"student_code"`
	FullName        string             `json:"full_name"`
	Attendance      *models.Attendance `json:"attendance,omitempty"`
}

// Roster returns the full participant roster of the session's project with
// per-student attendance resolved. Absent students carry a nil attendance.
func (s *AttendanceService) Roster(ctx context.Context, sessionID string) ([]RosterRow, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	_, project, err := s.resolveOwners(ctx, session)
	if err != nil {
		return nil, err
	}

	participants, err := s.participations.ListEnrolledDetails(ctx, models.ParticipableProject, project.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	details, err := s.attendances.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendances")
	}
	byStudent := make(map[string]models.Attendance, len(details))
	for _, d := range details {
		byStudent[d.StudentRecordID] = d.Attendance
	}

	rows := make([]RosterRow, 0, len(participants))
	for _, p := range participants {
		row := RosterRow{
			StudentRecordID: p.StudentRecordID,
			StudentCode:     p.StudentCode,
			FullName:        p.FullName,
		}
		if attendance, ok := byStudent[p.StudentRecordID]; ok {
			a := attendance
			row.Attendance = &a
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// JustifyRequest records or upgrades a justified absence.
type JustifyRequest struct {
	SessionID     string `json:"session_id" validate:"required"`
	StudentCode   string `json:"student_code" validate:"required"`
	Justification string `json:"justification" validate:"required,min=5,max=1000"`
	GrantHours    bool   `json:"grant_hours"`
}

// Justify marks a student's absence (or existing record) as JUSTIFIED. A
// missing attendance row is created; an existing one is upgraded in place.
func (s *AttendanceService) Justify(ctx context.Context, req JustifyRequest) (*models.Attendance, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid justification payload")
	}
	session, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	_, project, err := s.resolveOwners(ctx, session)
	if err != nil {
		return nil, err
	}
	record, err := s.records.FindActiveByCode(ctx, project.EPSiteID, req.StudentCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	enrolled, err := s.participations.ExistsEnrolled(ctx, models.ParticipableProject, project.ID, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participation")
	}
	if !enrolled {
		return nil, appErrors.Rule(CodeNotAParticipant, "student is not enrolled in the project")
	}

	existing, err := s.attendances.FindBySessionAndStudent(ctx, req.SessionID, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if existing != nil {
		if existing.State == models.AttendanceValidated {
			return nil, appErrors.Conflict("ATTENDANCE_VALIDATED", "validated attendance cannot be justified")
		}
		if err := s.attendances.UpdateJustification(ctx, existing.ID, req.Justification, req.GrantHours); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update justification")
		}
		existing.State = models.AttendanceJustified
		existing.Justification = &req.Justification
		existing.HoursGranted = req.GrantHours
		return existing, nil
	}

	justification := req.Justification
	attendance := &models.Attendance{
		SessionID:       req.SessionID,
		StudentRecordID: record.ID,
		Method:          models.CheckInManual,
		State:           models.AttendanceJustified,
		Justification:   &justification,
		HoursGranted:    req.GrantHours,
	}
	if err := s.attendances.Create(ctx, attendance); err != nil {
		if err == repository.ErrDuplicateAttendance {
			return nil, appErrors.Rule(CodeAlreadyCheckedIn, "attendance already recorded for this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance")
	}
	s.logger.Info("absence justified",
		zap.String("session_id", req.SessionID),
		zap.String("student_record_id", record.ID),
		zap.Bool("grant_hours", req.GrantHours))
	return attendance, nil
}

// ValidateBatch validates attendance records of one session and, when
// createHourRecord is set, credits hours into the academic ledger. The batch
// is best effort: each id reports its own outcome and one failure never
// blocks the rest. Ids belonging to another session are rejected
// individually. A ledger failure after a committed validation is logged and
// surfaced in the outcome, never rolled back.
func (s *AttendanceService) ValidateBatch(ctx context.Context, sessionID string, attendanceIDs []string, createHourRecord bool) ([]models.ValidationOutcome, error) {
	if len(attendanceIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty validation batch")
	}
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	outcomes := make([]models.ValidationOutcome, 0, len(attendanceIDs))
	for _, id := range attendanceIDs {
		outcomes = append(outcomes, s.validateOne(ctx, sessionID, id, createHourRecord))
	}
	return outcomes, nil
}

func (s *AttendanceService) validateOne(ctx context.Context, sessionID, id string, createHourRecord bool) models.ValidationOutcome {
	outcome := models.ValidationOutcome{AttendanceID: id}

	attendance, err := s.attendances.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			outcome.Reason = "NOT_FOUND"
		} else {
			outcome.Reason = "LOAD_FAILED"
			s.logger.Error("load attendance for validation", zap.String("attendance_id", id), zap.Error(err))
		}
		return outcome
	}
	if attendance.SessionID != sessionID {
		outcome.Reason = "WRONG_SESSION"
		return outcome
	}
	if attendance.State == models.AttendanceValidated {
		outcome.Reason = "ALREADY_VALIDATED"
		return outcome
	}
	creditable := attendance.State == models.AttendanceRecorded ||
		(attendance.State == models.AttendanceJustified && attendance.HoursGranted)

	if err := s.attendances.UpdateState(ctx, id, models.AttendanceValidated); err != nil {
		outcome.Reason = "UPDATE_FAILED"
		s.logger.Error("validate attendance", zap.String("attendance_id", id), zap.Error(err))
		return outcome
	}
	outcome.Validated = true

	if !createHourRecord || !creditable {
		return outcome
	}
	hours, err := s.creditableHours(ctx, attendance.SessionID)
	if err != nil {
		outcome.Reason = "CREDIT_SKIPPED"
		s.logger.Error("resolve creditable hours", zap.String("attendance_id", id), zap.Error(err))
		return outcome
	}
	record, err := s.ledger.CreditHours(ctx, attendance.StudentRecordID, hours, attendance.ID)
	if err != nil {
		outcome.Reason = "CREDIT_FAILED"
		s.logger.Error("credit hours", zap.String("attendance_id", id), zap.Error(err))
		return outcome
	}
	outcome.HourRecordID = record.ID
	return outcome
}

// creditableHours resolves how many hours a validated attendance is worth:
// the process's assigned hours when declared, otherwise the session slot
// length rounded up to whole hours.
func (s *AttendanceService) creditableHours(ctx context.Context, sessionID string) (int, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	process, err := s.processes.FindByID(ctx, session.SessionableID)
	if err != nil {
		return 0, fmt.Errorf("load process: %w", err)
	}
	if process.AssignedHours != nil && *process.AssignedHours > 0 {
		return *process.AssignedHours, nil
	}
	start, end, err := session.Window(0, 0)
	if err != nil {
		return 0, err
	}
	hours := int((end.Sub(start) + time.Hour - 1) / time.Hour)
	if hours < 1 {
		hours = 1
	}
	return hours, nil
}

// Report renders the session attendance sheet. JSON callers receive the raw
// details; CSV and PDF callers receive rendered bytes with a content type.
func (s *AttendanceService) Report(ctx context.Context, sessionID, format string) ([]byte, string, error) {
	details, err := s.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Student Code", "Full Name", "Method", "Checked In At", "State", "Hours Granted"},
	}
	for _, d := range details {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student Code":  d.StudentCode,
			"Full Name":     d.FullName,
			"Method":        string(d.Method),
			"Checked In At": d.CheckedInAt.Format(time.RFC3339),
			"State":         string(d.State),
			"Hours Granted": fmt.Sprintf("%t", d.HoursGranted),
		})
	}

	switch strings.ToLower(format) {
	case ReportFormatCSV:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return body, "text/csv", nil
	case ReportFormatPDF:
		body, err := s.pdf.Render(dataset, fmt.Sprintf("Attendance %s", sessionID))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return body, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}

func (s *AttendanceService) loadSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *AttendanceService) resolveOwners(ctx context.Context, session *models.Session) (*models.Process, *models.Project, error) {
	process, err := s.processes.FindByID(ctx, session.SessionableID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	project, err := s.projects.FindByID(ctx, process.ProjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return process, project, nil
}
