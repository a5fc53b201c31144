package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/service"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/response"
)

// DashboardHandler serves aggregated substitution views.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs a new DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// SubstitutionStats godoc
// @Summary Substitution summary for a date
// @Tags Dashboard
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param period query string false "Aggregation period (day or week), defaults to day"
// @Success 200 {object} response.Envelope
// @Router /dashboard/substitutions [get]
func (h *DashboardHandler) SubstitutionStats(c *gin.Context) {
	if c.Query("period") == "week" {
		stats, err := h.dashboard.WeekStats(c.Request.Context(), c.Query("date"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, stats)
		return
	}
	stats, err := h.dashboard.Stats(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
