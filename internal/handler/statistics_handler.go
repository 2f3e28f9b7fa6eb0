package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/orgs/:orgID/dashboard", middleware.RequireOrgMember(), h.GetDashboard)
}

// GetDashboard returns the organization dashboard
// @Summary      Get dashboard
// @Description  Aggregates box counts by status, expense/income totals, VAT/WHT sums, and top counterparties for the date range (default: current month)
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        orgID       path      string  true   "Organization ID"
// @Param        start_date  query     string  false  "Range start YYYY-MM-DD"
// @Param        end_date    query     string  false  "Range end YYYY-MM-DD"
// @Success      200         {object}  response.Response{data=service.DashboardResponse}
// @Router       /api/orgs/{orgID}/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	var req service.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query parameters: "+err.Error()))
		return
	}

	dashboard, err := h.statisticsService.GetDashboard(c.Request.Context(), orgIDFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}
