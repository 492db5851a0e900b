package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/roseyy14/project-monitoring/internal/middleware"
	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/service"
	"github.com/roseyy14/project-monitoring/pkg/pagination"
	"github.com/roseyy14/project-monitoring/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/requests")
	{
		// Dashboards are public: anyone can browse requests, identity only
		// widens what the detail view discloses.
		requests.GET("", middleware.OptionalAuth(), h.ListRequests)
		requests.GET("/locations", h.ListLocations)
		requests.GET("/:id", middleware.OptionalAuth(), h.GetRequest)

		requests.POST("", middleware.RequireRole(model.RoleBarangay), h.SubmitRequest)
		requests.PUT("/:id/seen", middleware.RequireRole(model.RoleBarangay, model.RoleEngineer, model.RoleAdmin), h.MarkSeen)
	}
}

// SubmitRequest handles POST /api/requests to file a new infrastructure request
// @Summary      Submit infrastructure request
// @Description  Files a new project request with an optional AIP document attachment
// @Tags         requests
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title         formData  string  true   "Project title"
// @Param        category      formData  string  true   "Project category"
// @Param        location      formData  string  true   "Barangay / location"
// @Param        budget        formData  string  false  "Proposed budget in pesos"
// @Param        aip_document  formData  file    false  "AIP document (max 10 MB)"
// @Success      201  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	var dto service.SubmitRequestDTO
	if err := c.ShouldBind(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := contextUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var aip *service.FileUpload
	if fileHeader, err := c.FormFile("aip_document"); err == nil && fileHeader != nil {
		upload, file, openErr := openUpload(fileHeader)
		if openErr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file"))
			return
		}
		defer file.Close()
		aip = upload
	}

	result, err := h.requestService.Submit(c.Request.Context(), dto, userID, aip)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests handles GET /api/requests with filter and sort query params
// @Summary      List requests
// @Description  Returns requests filtered by date range, status, location, and budget bracket
// @Tags         requests
// @Produce      json
// @Param        date_from  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        date_to    query  string  false  "End date (YYYY-MM-DD)"
// @Param        status     query  string  false  "all | approved | ongoing | completed | pending | rejected"
// @Param        location   query  string  false  "Exact location, or all"
// @Param        budget     query  string  false  "all | small | medium | large"
// @Param        sort_by    query  string  false  "date-desc | date-asc | title-asc | title-desc | budget-asc | budget-desc | status-asc | status-desc"
// @Param        mine       query  bool    false  "Only the caller's own submissions"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        limit      query  int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	var q service.ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query parameters"))
		return
	}

	role := contextRole(c)
	userID := contextUserID(c)

	result, err := h.requestService.List(c.Request.Context(), q, role, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	// Filtering and sorting happen over the full set, so the page is cut
	// from the already ordered list.
	params := pagination.Parse(c)
	page, total := pagination.Slice(result, params)

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   page,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// ListLocations handles GET /api/requests/locations for the filter dropdown
// @Summary      List known locations
// @Tags         requests
// @Produce      json
// @Success      200  {object}  response.Response{data=[]string}
// @Router       /api/requests/locations [get]
func (h *RequestHandler) ListLocations(c *gin.Context) {
	locations, err := h.requestService.Locations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, locations))
}

// GetRequest handles GET /api/requests/:id for the role-scoped detail view
// @Summary      Get request detail
// @Description  Returns the request with field visibility scoped to the caller's role
// @Tags         requests
// @Produce      json
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	result, err := h.requestService.Get(c.Request.Context(), c.Param("id"), contextRole(c), contextUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// MarkSeen handles PUT /api/requests/:id/seen
// @Summary      Mark status update seen
// @Description  Records that the caller viewed the latest status change; idempotent
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/seen [put]
func (h *RequestHandler) MarkSeen(c *gin.Context) {
	userID := contextUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	if err := h.requestService.MarkSeen(c.Request.Context(), c.Param("id"), userID); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Marked as seen"))
}

// --- shared helpers ---

func contextUserID(c *gin.Context) string {
	v, _ := c.Get("userID")
	s, _ := v.(string)
	return s
}

func contextRole(c *gin.Context) string {
	v, _ := c.Get("userRole")
	s, _ := v.(string)
	return s
}

// openUpload adapts a multipart header into the service upload struct. The
// caller owns closing the returned file.
func openUpload(fh *multipart.FileHeader) (*service.FileUpload, multipart.File, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.FileUpload{Reader: file, Name: fh.Filename, Size: fh.Size}, file, nil
}
