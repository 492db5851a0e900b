package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/report"
	"github.com/roseyy14/project-monitoring/internal/repository"
	"github.com/roseyy14/project-monitoring/internal/storage"
	"github.com/roseyy14/project-monitoring/internal/view"
	"github.com/roseyy14/project-monitoring/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// --- DTOs ---

type SubmitRequestDTO struct {
	Title      string `form:"title" binding:"required"`
	Category   string `form:"category" binding:"required"`
	Location   string `form:"location" binding:"required"`
	Details    string `form:"details"`
	Urgency    string `form:"urgency"`
	BudgetYear string `form:"budget_year"`
	Contact    string `form:"contact"`
	Budget     string `form:"budget"` // decimal string, empty for unspecified
}

// FileUpload carries one multipart attachment into the service layer.
type FileUpload struct {
	Reader io.Reader
	Name   string
	Size   int64
}

type ListRequestsQuery struct {
	DateFrom string `form:"date_from"` // YYYY-MM-DD
	DateTo   string `form:"date_to"`
	Status   string `form:"status"`
	Location string `form:"location"`
	Budget   string `form:"budget"`
	SortBy   string `form:"sort_by"`
	Mine     bool   `form:"mine"`
}

type RequestResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Category      string           `json:"category"`
	Location      string           `json:"location"`
	Status        string           `json:"status"`
	ProjectStatus string           `json:"project_status,omitempty"`
	DisplayBucket string           `json:"display_bucket"`
	Budget        *decimal.Decimal `json:"budget"`
	BudgetDisplay string           `json:"budget_display"`
	AmountSpent   decimal.Decimal  `json:"amount_spent"`
	Progress      int              `json:"progress"`
	SubmittedBy   string           `json:"submitted_by,omitempty"`
	HasNewUpdate  bool             `json:"has_new_update"`
	CreatedAt     string           `json:"created_at,omitempty"`
	UpdatedAt     string           `json:"updated_at,omitempty"`
}

type RequestDetailResponse struct {
	RequestResponse
	Fields       []view.Field        `json:"fields"`
	ProofImages  []string            `json:"proof_images,omitempty"`
	Certificates []model.Certificate `json:"certificates,omitempty"`
	Notes        string              `json:"notes,omitempty"`
}

// --- Interface ---

// RequestService covers submission and read paths of the request lifecycle.
// Approval decisions and progress updates live in their own services.
type RequestService interface {
	Submit(ctx context.Context, dto SubmitRequestDTO, userID string, aip *FileUpload) (*RequestResponse, error)
	List(ctx context.Context, q ListRequestsQuery, role, userID string) ([]RequestResponse, error)
	Get(ctx context.Context, id string, role, userID string) (*RequestDetailResponse, error)
	MarkSeen(ctx context.Context, id string, userID string) error
	Locations(ctx context.Context) ([]string, error)
}

type requestService struct {
	repo      repository.RequestRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	uploader  storage.Uploader
	hub       *websocket.Hub
}

func NewRequestService(
	repo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	uploader storage.Uploader,
	hub *websocket.Hub,
) RequestService {
	return &requestService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		uploader:  uploader,
		hub:       hub,
	}
}

// --- Implementation ---

func (s *requestService) Submit(ctx context.Context, dto SubmitRequestDTO, userID string, aip *FileUpload) (*RequestResponse, error) {
	creatorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var budget *decimal.Decimal
	if dto.Budget != "" {
		parsed, parseErr := decimal.NewFromString(dto.Budget)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid budget: %w", parseErr)
		}
		if parsed.IsNegative() {
			return nil, fmt.Errorf("budget cannot be negative")
		}
		budget = &parsed
	}

	req := model.Request{
		Title:       dto.Title,
		Category:    dto.Category,
		Location:    dto.Location,
		Details:     dto.Details,
		Urgency:     dto.Urgency,
		BudgetYear:  dto.BudgetYear,
		Contact:     dto.Contact,
		Budget:      budget,
		AmountSpent: decimal.Zero,
		Status:      model.RequestStatusPendingApproval,
		CreatedByID: &creatorID,
	}

	// Upload before write: a failed upload must leave no record behind.
	if aip != nil {
		att, upErr := s.uploader.Upload(ctx, aip.Reader, aip.Name, aip.Size, "aip-documents")
		if upErr != nil {
			return nil, fmt.Errorf("failed to upload AIP document: %w", upErr)
		}
		req.AIPDocument = datatypes.NewJSONType(model.AIPDocument{
			URL:          att.URL,
			PublicID:     att.PublicID,
			Format:       att.Format,
			Size:         att.Size,
			OriginalName: att.OriginalName,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, &req); createErr != nil {
			return fmt.Errorf("failed to create request: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"title":    req.Title,
			"category": req.Category,
			"location": req.Location,
		})
		audit := model.AuditLog{
			UserID:     &creatorID,
			Action:     model.ActionSubmitRequest,
			EntityID:   req.ID.String(),
			EntityName: req.Title,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(websocket.Event{
			Type:      "request_submitted",
			RequestID: req.ID.String(),
			Status:    string(req.WorkflowStatus()),
		})
	}

	resp := toRequestResponse(&req, "")
	return &resp, nil
}

func (s *requestService) List(ctx context.Context, q ListRequestsQuery, role, userID string) ([]RequestResponse, error) {
	filter := repository.RequestFilter{}
	if q.Mine && userID != "" {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, fmt.Errorf("invalid user id: %w", err)
		}
		filter.CreatedByID = &uid
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	filters, err := toReportFilters(q)
	if err != nil {
		return nil, err
	}
	requests = report.Apply(requests, filters)

	out := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toRequestResponse(&requests[i], userID))
	}
	return out, nil
}

func (s *requestService) Get(ctx context.Context, id string, role, userID string) (*RequestDetailResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	req, err := s.repo.FindByIDWithCreator(ctx, reqID)
	if err != nil {
		return nil, fmt.Errorf("request not found: %w", err)
	}

	detail := RequestDetailResponse{
		RequestResponse: toRequestResponse(req, userID),
		Fields:          view.FormatRequestForRole(req, role),
	}
	if role == model.RoleEngineer || role == model.RoleAdmin {
		detail.ProofImages = req.ProofImages
		detail.Certificates = req.Certificates
		detail.Notes = req.Notes
	}
	return &detail, nil
}

// MarkSeen records that the user has viewed the request's latest status.
// Repeated calls are no-ops.
func (s *requestService) MarkSeen(ctx context.Context, id string, userID string) error {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}

	req, err := s.repo.FindByID(ctx, reqID)
	if err != nil {
		return fmt.Errorf("request not found: %w", err)
	}

	if req.HasSeen(userID) {
		return nil
	}
	req.SeenBy = append(req.SeenBy, userID)
	if err := s.repo.Update(ctx, req); err != nil {
		return fmt.Errorf("failed to mark request seen: %w", err)
	}
	return nil
}

// Locations returns the distinct location values currently on record,
// feeding the dashboard's location filter dropdown.
func (s *requestService) Locations(ctx context.Context) ([]string, error) {
	requests, err := s.repo.List(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	seen := map[string]bool{}
	var out []string
	for i := range requests {
		loc := requests[i].Location
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out, nil
}

// --- Helpers ---

func toReportFilters(q ListRequestsQuery) (report.Filters, error) {
	f := report.Filters{
		Status:   q.Status,
		Location: q.Location,
		Budget:   q.Budget,
		SortBy:   q.SortBy,
	}
	if q.DateFrom != "" {
		t, err := time.Parse("2006-01-02", q.DateFrom)
		if err != nil {
			return f, fmt.Errorf("invalid date_from: %w", err)
		}
		f.DateFrom = &t
	}
	if q.DateTo != "" {
		t, err := time.Parse("2006-01-02", q.DateTo)
		if err != nil {
			return f, fmt.Errorf("invalid date_to: %w", err)
		}
		f.DateTo = &t
	}
	return f.Normalize(), nil
}

func toRequestResponse(r *model.Request, viewerID string) RequestResponse {
	resp := RequestResponse{
		ID:            r.ID.String(),
		Title:         r.Title,
		Category:      report.NormalizeCategory(r.Category),
		Location:      r.Location,
		Status:        string(r.WorkflowStatus()),
		ProjectStatus: r.ProjectStatus,
		DisplayBucket: string(r.DisplayBucket()),
		Budget:        r.Budget,
		BudgetDisplay: view.FormatBudget(r.Budget),
		AmountSpent:   r.AmountSpent,
		Progress:      r.Progress,
	}
	if r.Creator != nil {
		resp.SubmittedBy = r.Creator.FullName
	}
	if viewerID != "" {
		resp.HasNewUpdate = r.WorkflowStatus() != model.StatusPending && !r.HasSeen(viewerID)
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() {
		resp.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
