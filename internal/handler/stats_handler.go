package handler

import (
	"net/http"

	"github.com/roseyy14/project-monitoring/internal/middleware"
	"github.com/roseyy14/project-monitoring/internal/service"
	"github.com/roseyy14/project-monitoring/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService service.StatsService
}

func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/reports", middleware.OptionalAuth(), h.Dashboard)
}

// Dashboard handles GET /api/reports for the public monitoring dashboard
// @Summary      Dashboard report
// @Description  Returns chart aggregates and the filtered request table in one payload
// @Tags         reports
// @Produce      json
// @Param        date_from  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        date_to    query  string  false  "End date (YYYY-MM-DD)"
// @Param        status     query  string  false  "all | approved | ongoing | completed | pending | rejected"
// @Param        location   query  string  false  "Exact location, or all"
// @Param        budget     query  string  false  "all | small | medium | large"
// @Param        sort_by    query  string  false  "Sort key"
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/reports [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	var q service.ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query parameters"))
		return
	}

	result, err := h.statsService.Dashboard(c.Request.Context(), q, contextUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
