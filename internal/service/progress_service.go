package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/repository"
	"github.com/roseyy14/project-monitoring/internal/storage"
	"github.com/roseyy14/project-monitoring/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type UpdateProgressDTO struct {
	ProjectStatus string `form:"project_status" binding:"omitempty,oneof=not-started in-progress finished"`
	Progress      *int   `form:"progress"`
	Notes         string `form:"notes"`

	ExpenseAmount string `form:"expense_amount"` // decimal string
	ExpenseDate   string `form:"expense_date"`   // YYYY-MM-DD
	ExpenseNote   string `form:"expense_note"`

	ContractorName    string `form:"contractor_name"`
	ContractorAddress string `form:"contractor_address"`
	ContractAmount    string `form:"contract_amount"`
	ContractDate      string `form:"contract_date"`
}

// ProgressUploads carries the optional attachments of a progress update.
type ProgressUploads struct {
	ProofImages []FileUpload
	Certificate *FileUpload
}

// --- Interface ---

// ProgressService is the engineer's mutation path for approved projects.
type ProgressService interface {
	UpdateProgress(ctx context.Context, id string, engineerID string, dto UpdateProgressDTO, uploads ProgressUploads) (*RequestResponse, error)
}

type progressService struct {
	repo      repository.RequestRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	uploader  storage.Uploader
	hub       *websocket.Hub
}

func NewProgressService(
	repo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	uploader storage.Uploader,
	hub *websocket.Hub,
) ProgressService {
	return &progressService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		uploader:  uploader,
		hub:       hub,
	}
}

// --- Implementation ---

func (s *progressService) UpdateProgress(ctx context.Context, id string, engineerID string, dto UpdateProgressDTO, uploads ProgressUploads) (*RequestResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	actorID, err := uuid.Parse(engineerID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	if dto.Progress != nil && (*dto.Progress < 0 || *dto.Progress > 100) {
		return nil, fmt.Errorf("progress must be between 0 and 100")
	}

	var expense *model.ExpenseLine
	if dto.ExpenseAmount != "" {
		amount, parseErr := decimal.NewFromString(dto.ExpenseAmount)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid expense amount: %w", parseErr)
		}
		if !amount.IsPositive() {
			return nil, fmt.Errorf("expense amount must be positive")
		}
		date := dto.ExpenseDate
		if date == "" {
			date = time.Now().Format("2006-01-02")
		} else if _, dateErr := time.Parse("2006-01-02", date); dateErr != nil {
			return nil, fmt.Errorf("invalid expense date: %w", dateErr)
		}
		expense = &model.ExpenseLine{Amount: amount, Date: date, Note: dto.ExpenseNote}
	}

	var contractAmount *decimal.Decimal
	if dto.ContractAmount != "" {
		parsed, parseErr := decimal.NewFromString(dto.ContractAmount)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid contract amount: %w", parseErr)
		}
		contractAmount = &parsed
	}

	// Pre-check before any uploads so a doomed update wastes no storage.
	current, err := s.repo.FindByID(ctx, reqID)
	if err != nil {
		return nil, fmt.Errorf("request not found: %w", err)
	}
	if current.WorkflowStatus() != model.StatusApproved {
		return nil, fmt.Errorf("only approved projects can be updated")
	}
	if dto.ProjectStatus == model.ProjectFinished &&
		current.ProjectStatus != model.ProjectFinished &&
		uploads.Certificate == nil && len(current.Certificates) == 0 {
		return nil, fmt.Errorf("a completion certificate is required to mark the project finished")
	}

	// Upload before write, same discipline as submission.
	var proofURLs []string
	for _, img := range uploads.ProofImages {
		att, upErr := s.uploader.Upload(ctx, img.Reader, img.Name, img.Size, "proof-images")
		if upErr != nil {
			return nil, fmt.Errorf("failed to upload proof image: %w", upErr)
		}
		proofURLs = append(proofURLs, att.URL)
	}
	var certificate *model.Certificate
	if uploads.Certificate != nil {
		att, upErr := s.uploader.Upload(ctx, uploads.Certificate.Reader, uploads.Certificate.Name, uploads.Certificate.Size, "certificates")
		if upErr != nil {
			return nil, fmt.Errorf("failed to upload certificate: %w", upErr)
		}
		certificate = &model.Certificate{
			URL:        att.URL,
			UploadedAt: time.Now(),
			Type:       model.CertificateTypeCompletion,
		}
	}

	var req *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		if req.WorkflowStatus() != model.StatusApproved {
			return fmt.Errorf("only approved projects can be updated")
		}

		if dto.ProjectStatus != "" {
			if dto.ProjectStatus == model.ProjectFinished &&
				req.ProjectStatus != model.ProjectFinished &&
				certificate == nil && len(req.Certificates) == 0 {
				return fmt.Errorf("a completion certificate is required to mark the project finished")
			}
			req.ProjectStatus = dto.ProjectStatus
			if dto.ProjectStatus == model.ProjectFinished {
				req.Progress = 100
			}
		}

		if dto.Progress != nil {
			req.Progress = *dto.Progress
		}
		if strings.TrimSpace(dto.Notes) != "" {
			req.Notes = dto.Notes
		}

		// Spending accumulates: the total is incremented, never replaced,
		// and each line is preserved.
		if expense != nil {
			req.AmountSpent = req.AmountSpent.Add(expense.Amount)
			req.Expenses = append(req.Expenses, *expense)
		}

		req.ProofImages = append(req.ProofImages, proofURLs...)
		if certificate != nil {
			req.Certificates = append(req.Certificates, *certificate)
		}

		if dto.ContractorName != "" {
			req.ContractorName = dto.ContractorName
		}
		if dto.ContractorAddress != "" {
			req.ContractorAddress = dto.ContractorAddress
		}
		if contractAmount != nil {
			req.ContractAmount = contractAmount
		}
		if dto.ContractDate != "" {
			req.ContractDate = dto.ContractDate
		}

		// Progress is a fresh status change for watchers.
		req.SeenBy = nil

		if saveErr := s.repo.Update(txCtx, req); saveErr != nil {
			return fmt.Errorf("failed to update request: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"project_status": req.ProjectStatus,
			"progress":       req.Progress,
			"amount_spent":   req.AmountSpent.StringFixed(2),
		})
		audit := model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionUpdateProgress,
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
			Type:      "request_updated",
			RequestID: req.ID.String(),
			Status:    string(req.DisplayBucket()),
		})
	}

	resp := toRequestResponse(req, "")
	return &resp, nil
}
