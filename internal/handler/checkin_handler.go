package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/internal/service"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// CheckInHandler exposes the check-in window and capture endpoints.
type CheckInHandler struct {
	checkIns *service.CheckInService
	metrics  *service.MetricsService
}

// NewCheckInHandler constructs CheckInHandler.
func NewCheckInHandler(checkIns *service.CheckInService, metrics *service.MetricsService) *CheckInHandler {
	return &CheckInHandler{checkIns: checkIns, metrics: metrics}
}

// OpenQR godoc
// @Summary Open a QR check-in window for a session
// @Tags CheckIn
// @Produce json
// @Param id path string true "Session ID"
// @Param maxUses query int false "Token capacity (0 uses the default)"
// @Success 201 {object} response.Envelope
// @Router /vm/sessions/{id}/qr [post]
func (h *CheckInHandler) OpenQR(c *gin.Context) {
	maxUses, _ := strconv.Atoi(c.DefaultQuery("maxUses", "0"))
	token, err := h.checkIns.OpenQR(c.Request.Context(), c.Param("id"), maxUses)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, token)
}

// ActivateManual godoc
// @Summary Open a manual check-in window for a session
// @Tags CheckIn
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Router /vm/sessions/{id}/manual-window [post]
func (h *CheckInHandler) ActivateManual(c *gin.Context) {
	token, err := h.checkIns.ActivateManual(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, token)
}

// CheckInQR godoc
// @Summary Record attendance from a QR scan
// @Tags CheckIn
// @Accept json
// @Produce json
// @Param payload body service.QRCheckInRequest true "Scan payload"
// @Success 201 {object} response.Envelope
// @Router /vm/check-in/qr [post]
func (h *CheckInHandler) CheckInQR(c *gin.Context) {
	var req service.QRCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	attendance, err := h.checkIns.CheckInQR(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		h.metrics.RecordCheckIn(string(models.CheckInQR), appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.RecordCheckIn(string(models.CheckInQR), "OK")
	response.Created(c, attendance)
}

// CheckInManual godoc
// @Summary Record attendance on behalf of a student
// @Tags CheckIn
// @Accept json
// @Produce json
// @Param payload body service.ManualCheckInRequest true "Manual check-in payload"
// @Success 201 {object} response.Envelope
// @Router /vm/check-in/manual [post]
func (h *CheckInHandler) CheckInManual(c *gin.Context) {
	var req service.ManualCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	attendance, err := h.checkIns.CheckInManual(c.Request.Context(), req)
	if err != nil {
		h.metrics.RecordCheckIn(string(models.CheckInManual), appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.RecordCheckIn(string(models.CheckInManual), "OK")
	response.Created(c, attendance)
}
