package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/service"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// SessionHandler exposes session scheduling endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List godoc
// @Summary List sessions of a process
// @Tags Sessions
// @Produce json
// @Param id path string true "Process ID"
// @Success 200 {object} response.Envelope
// @Router /vm/processes/{id}/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessions.ListByProcess(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// CreateBatch godoc
// @Summary Schedule sessions for a process atomically
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Process ID"
// @Param payload body []service.SessionRequest true "Session slots"
// @Success 201 {object} response.Envelope
// @Router /vm/processes/{id}/sessions [post]
func (h *SessionHandler) CreateBatch(c *gin.Context) {
	var reqs []service.SessionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sessions, err := h.sessions.CreateBatch(c.Request.Context(), c.Param("id"), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sessions)
}

// Get godoc
// @Summary Get a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /vm/sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Update godoc
// @Summary Reschedule a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.SessionRequest true "Session slot"
// @Success 200 {object} response.Envelope
// @Router /vm/sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req service.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Remove a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Router /vm/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
