package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roseyy14/project-monitoring/internal/mailer"
	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/repository"
	"github.com/roseyy14/project-monitoring/internal/websocket"

	"github.com/google/uuid"
)

const notifyTimeout = 15 * time.Second

// --- DTOs ---

type RejectRequestDTO struct {
	Reason string `json:"reason" binding:"required"`
}

// --- Interface ---

// ApprovalService holds the admin decision paths. Both mutations require the
// request to still be pending; decided requests are immutable to this
// service.
type ApprovalService interface {
	Approve(ctx context.Context, id string, adminID string) (*RequestResponse, error)
	Reject(ctx context.Context, id string, adminID string, reason string) (*RequestResponse, error)
}

type approvalService struct {
	repo      repository.RequestRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	mailer    mailer.Mailer
	hub       *websocket.Hub
}

func NewApprovalService(
	repo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	m mailer.Mailer,
	hub *websocket.Hub,
) ApprovalService {
	return &approvalService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		mailer:    m,
		hub:       hub,
	}
}

// --- Implementation ---

func (s *approvalService) Approve(ctx context.Context, id string, adminID string) (*RequestResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	approverID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	var req *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		if req.WorkflowStatus() != model.StatusPending {
			return fmt.Errorf("request is already %s", req.WorkflowStatus())
		}

		approved := true
		req.IsApproved = &approved
		req.Status = model.RequestStatusApproved
		req.ProjectStatus = model.ProjectNotStarted
		req.Progress = 0
		req.ApprovedBy = &approverID
		// A decision is a fresh status change, nobody has seen it yet.
		req.SeenBy = nil

		if saveErr := s.repo.Update(txCtx, req); saveErr != nil {
			return fmt.Errorf("failed to update request: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"title": req.Title,
		})
		audit := model.AuditLog{
			UserID:     &approverID,
			Action:     model.ActionApproveRequest,
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

	s.notify(ctx, reqID, "")

	resp := toRequestResponse(req, "")
	return &resp, nil
}

func (s *approvalService) Reject(ctx context.Context, id string, adminID string, reason string) (*RequestResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}
	approverID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	// Validate before touching the database: a rejection without a reason
	// must fail with no state change.
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("a rejection reason is required")
	}

	var req *model.Request
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		req, findErr = s.repo.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		if req.WorkflowStatus() != model.StatusPending {
			return fmt.Errorf("request is already %s", req.WorkflowStatus())
		}

		rejected := false
		req.IsApproved = &rejected
		req.Status = model.RequestStatusRejected
		req.ReasonForDecline = reason
		req.ApprovedBy = &approverID
		req.SeenBy = nil

		if saveErr := s.repo.Update(txCtx, req); saveErr != nil {
			return fmt.Errorf("failed to update request: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"title":  req.Title,
			"reason": reason,
		})
		audit := model.AuditLog{
			UserID:     &approverID,
			Action:     model.ActionRejectRequest,
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

	s.notify(ctx, reqID, reason)

	resp := toRequestResponse(req, "")
	return &resp, nil
}

// notify reloads the request with its creator and fires the email and
// websocket side effects. Both are best effort: the decision has already
// committed.
func (s *approvalService) notify(ctx context.Context, reqID uuid.UUID, rejectionReason string) {
	req, err := s.repo.FindByIDWithCreator(ctx, reqID)
	if err != nil {
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(websocket.Event{
			Type:      "request_updated",
			RequestID: req.ID.String(),
			Status:    string(req.WorkflowStatus()),
		})
	}

	if s.mailer != nil && req.Creator != nil && req.Creator.Email != "" {
		go func(r model.Request, reason string) {
			sendCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if r.WorkflowStatus() == model.StatusApproved {
				s.mailer.SendApproval(sendCtx, &r)
			} else {
				s.mailer.SendRejection(sendCtx, &r, reason)
			}
		}(*req, rejectionReason)
	}
}
