package handler

import (
	"net/http"

	"github.com/roseyy14/project-monitoring/internal/middleware"
	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/service"
	"github.com/roseyy14/project-monitoring/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progressService service.ProgressService
}

func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (h *ProgressHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		requests.PUT("/:id/progress", middleware.RequireRole(model.RoleEngineer, model.RoleAdmin), h.UpdateProgress)
	}
}

// UpdateProgress handles PUT /api/requests/:id/progress
// @Summary      Update project progress
// @Description  Records execution state, expenses, contractor details, and attachments for an approved project
// @Tags         progress
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id              path      string  true   "Request ID"
// @Param        project_status  formData  string  false  "not-started | in-progress | finished"
// @Param        progress        formData  int     false  "Physical completion 0-100"
// @Param        expense_amount  formData  string  false  "Expense amount in pesos"
// @Param        expense_date    formData  string  false  "Expense date (YYYY-MM-DD)"
// @Param        proof_images    formData  file    false  "Progress photos (max 10 MB each)"
// @Param        certificate     formData  file    false  "Completion certificate, required when finishing"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/requests/{id}/progress [put]
func (h *ProgressHandler) UpdateProgress(c *gin.Context) {
	var dto service.UpdateProgressDTO
	if err := c.ShouldBind(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := contextUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var uploads service.ProgressUploads

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["proof_images"] {
			upload, file, openErr := openUpload(fh)
			if openErr != nil {
				c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
				return
			}
			defer file.Close()
			uploads.ProofImages = append(uploads.ProofImages, *upload)
		}
	}

	if fh, err := c.FormFile("certificate"); err == nil && fh != nil {
		upload, file, openErr := openUpload(fh)
		if openErr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
			return
		}
		defer file.Close()
		uploads.Certificate = upload
	}

	result, err := h.progressService.UpdateProgress(c.Request.Context(), c.Param("id"), userID, dto, uploads)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
