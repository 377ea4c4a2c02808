package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/service"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// ProcessHandler exposes process scheduling endpoints.
type ProcessHandler struct {
	processes *service.ProcessService
}

// NewProcessHandler constructs ProcessHandler.
func NewProcessHandler(processes *service.ProcessService) *ProcessHandler {
	return &ProcessHandler{processes: processes}
}

// List godoc
// @Summary List processes of a project
// @Tags Processes
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/{id}/processes [get]
func (h *ProcessHandler) List(c *gin.Context) {
	processes, err := h.processes.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, processes, nil)
}

// Create godoc
// @Summary Add a process to a planned project
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body service.ProcessRequest true "Process payload"
// @Success 201 {object} response.Envelope
// @Router /vm/projects/{id}/processes [post]
func (h *ProcessHandler) Create(c *gin.Context) {
	var req service.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	process, err := h.processes.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, process)
}

// Update godoc
// @Summary Edit a process of a planned project
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Process ID"
// @Param payload body service.ProcessRequest true "Process payload"
// @Success 200 {object} response.Envelope
// @Router /vm/processes/{id} [put]
func (h *ProcessHandler) Update(c *gin.Context) {
	var req service.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	process, err := h.processes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, process, nil)
}

// Delete godoc
// @Summary Remove a process of a planned project
// @Tags Processes
// @Produce json
// @Param id path string true "Process ID"
// @Success 204
// @Router /vm/processes/{id} [delete]
func (h *ProcessHandler) Delete(c *gin.Context) {
	if err := h.processes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
