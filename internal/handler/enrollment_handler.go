package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/service"
	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, metrics: metrics}
}

// Enroll godoc
// @Summary Enroll the authenticated student into a project
// @Tags Enrollments
// @Produce json
// @Param id path string true "Project ID"
// @Success 201 {object} response.Envelope
// @Router /vm/projects/{id}/enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	participation, err := h.enrollments.Enroll(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		h.metrics.RecordEnrollmentDecision(appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.RecordEnrollmentDecision(service.CodeEnrolled)
	response.CreatedWithCode(c, service.CodeEnrolled, participation)
}

// ListEnrolled godoc
// @Summary Roster of enrolled participants
// @Tags Enrollments
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/{id}/enrollments [get]
func (h *EnrollmentHandler) ListEnrolled(c *gin.Context) {
	details, err := h.enrollments.ListEnrolled(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// ListCandidates godoc
// @Summary Preview eligibility of the EP-site's students
// @Tags Enrollments
// @Produce json
// @Param id path string true "Project ID"
// @Param limit query int false "Max students"
// @Param only_eligible query bool false "Return eligible students only"
// @Success 200 {object} response.Envelope
// @Router /vm/projects/{id}/candidates [get]
func (h *EnrollmentHandler) ListCandidates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	onlyEligible, _ := strconv.ParseBool(c.DefaultQuery("only_eligible", "false"))
	candidates, err := h.enrollments.ListCandidates(c.Request.Context(), c.Param("id"), limit, onlyEligible)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, nil)
}
