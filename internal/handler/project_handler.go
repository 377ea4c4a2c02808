package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/models"
	"github.com/upeu-dev/vinculacion-api/internal/service"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// ProjectHandler exposes project lifecycle endpoints.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler constructs ProjectHandler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param epSiteId query string false "Filter by EP-site"
// @Param periodId query string false "Filter by period"
// @Param state query string false "Filter by state"
// @Param type query string false "Filter by type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /vm/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var filter models.ProjectFilter
	filter.EPSiteID = c.Query("epSiteId")
	filter.PeriodID = c.Query("periodId")
	filter.State = models.ProjectState(strings.ToUpper(c.Query("state")))
	filter.Type = models.ProjectType(strings.ToUpper(c.Query("type")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	projects, pagination, err := h.projects.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, pagination)
}

// Create godoc
// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body service.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Router /vm/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	project, err := h.projects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Get godoc
// @Summary Get a project with processes and sessions
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	detail, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Publish godoc
// @Summary Publish a planned project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/{id}/publish [post]
func (h *ProjectHandler) Publish(c *gin.Context) {
	project, err := h.projects.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Close godoc
// @Summary Close an in-progress project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/{id}/close [post]
func (h *ProjectHandler) Close(c *gin.Context) {
	project, err := h.projects.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// Cancel godoc
// @Summary Cancel a project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/{id}/cancel [post]
func (h *ProjectHandler) Cancel(c *gin.Context) {
	project, err := h.projects.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// AvailableLevels godoc
// @Summary Levels still open for a linked project
// @Tags Projects
// @Produce json
// @Param epSiteId query string true "EP-site ID"
// @Param periodId query string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/available-levels [get]
func (h *ProjectHandler) AvailableLevels(c *gin.Context) {
	epSiteID := c.Query("epSiteId")
	periodID := c.Query("periodId")
	if epSiteID == "" || periodID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "epSiteId and periodId are required"))
		return
	}
	levels, err := h.projects.AvailableLevels(c.Request.Context(), epSiteID, periodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// ListMine godoc
// @Summary Projects visible to the authenticated student
// @Tags Projects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vm/me/projects [get]
func (h *ProjectHandler) ListMine(c *gin.Context) {
	view, err := h.projects.ListForStudent(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
