package handler

import (
	"net/http"

	"github.com/roseyy14/project-monitoring/internal/middleware"
	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/service"
	"github.com/roseyy14/project-monitoring/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.PUT("/:id/approve", middleware.RequireRole(model.RoleAdmin), h.ApproveRequest)
		requests.PUT("/:id/reject", middleware.RequireRole(model.RoleAdmin), h.RejectRequest)
	}
}

// ApproveRequest handles PUT /api/requests/:id/approve
// @Summary      Approve request
// @Description  Approves a pending request and initializes its project tracking state
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/requests/{id}/approve [put]
func (h *ApprovalHandler) ApproveRequest(c *gin.Context) {
	result, err := h.approvalService.Approve(c.Request.Context(), c.Param("id"), contextUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectRequest handles PUT /api/requests/:id/reject
// @Summary      Reject request
// @Description  Rejects a pending request; a non-empty reason is mandatory
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                     true  "Request ID"
// @Param        payload  body  service.RejectRequestDTO   true  "Rejection reason"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/requests/{id}/reject [put]
func (h *ApprovalHandler) RejectRequest(c *gin.Context) {
	var req service.RejectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A rejection reason is required"))
		return
	}

	result, err := h.approvalService.Reject(c.Request.Context(), c.Param("id"), contextUserID(c), req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
