package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/service"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// AttendanceHandler exposes the validation, justification and report
// endpoints.
type AttendanceHandler struct {
	attendances *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendances *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendances: attendances}
}

// ListBySession godoc
// @Summary Attendance rows captured for a session
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /vm/sessions/{id}/attendances [get]
func (h *AttendanceHandler) ListBySession(c *gin.Context) {
	details, err := h.attendances.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Roster godoc
// @Summary Full participant roster with per-student attendance
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /vm/sessions/{id}/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	rows, err := h.attendances.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Justify godoc
// @Summary Record or upgrade a justified absence
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.JustifyRequest true "Justification payload"
// @Success 200 {object} response.Envelope
// @Router /vm/attendances/justify [post]
func (h *AttendanceHandler) Justify(c *gin.Context) {
	var req service.JustifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	attendance, err := h.attendances.Justify(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attendance, nil)
}

// ValidateBatchRequest carries the attendance ids to validate and whether
// hour records should be emitted for creditable rows.
type ValidateBatchRequest struct {
	AttendanceIDs    []string `json:"attendance_ids"`
	CreateHourRecord bool     `json:"create_hour_record"`
}

// ValidateBatch godoc
// @Summary Validate a session's attendance records
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body ValidateBatchRequest true "Attendance ids and crediting flag"
// @Success 200 {object} response.Envelope
// @Router /vm/sessions/{id}/validate [post]
func (h *AttendanceHandler) ValidateBatch(c *gin.Context) {
	var req ValidateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcomes, err := h.attendances.ValidateBatch(c.Request.Context(), c.Param("id"), req.AttendanceIDs, req.CreateHourRecord)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes, nil)
}

// Report godoc
// @Summary Export the session attendance sheet
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Param format query string false "json, csv or pdf" default(json)
// @Success 200 {object} response.Envelope
// @Router /vm/sessions/{id}/attendances/report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	sessionID := c.Param("id")
	format := c.DefaultQuery("format", service.ReportFormatJSON)
	if format == service.ReportFormatJSON {
		details, err := h.attendances.ListBySession(c.Request.Context(), sessionID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, details, nil)
		return
	}

	body, contentType, err := h.attendances.Report(c.Request.Context(), sessionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("attendance-%s.%s", sessionID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}
