package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upeu-dev/vinculacion-api/internal/service"
	"github.com/upeu-dev/vinculacion-api/pkg/response"
)

// LookupHandler serves the read-only catalog views.
type LookupHandler struct {
	lookups *service.LookupService
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(lookups *service.LookupService) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

// ListPeriods godoc
// @Summary List academic periods
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vm/lookups/periods [get]
func (h *LookupHandler) ListPeriods(c *gin.Context) {
	periods, err := h.lookups.ListPeriods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// CurrentPeriod godoc
// @Summary Current academic period
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vm/lookups/periods/current [get]
func (h *LookupHandler) CurrentPeriod(c *gin.Context) {
	period, err := h.lookups.CurrentPeriod(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// ListEPSites godoc
// @Summary List EP-sites
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vm/lookups/ep-sites [get]
func (h *LookupHandler) ListEPSites(c *gin.Context) {
	sites, err := h.lookups.ListEPSites(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sites, nil)
}
