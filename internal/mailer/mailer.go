// Package mailer delivers decision notifications to the submitting barangay
// official through the EmailJS REST API. Delivery is best effort: failures
// are logged and never surface to the approval flow.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"text/template"
	"time"

	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/view"
)

const sendEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

const fromName = "Municipal Project Monitoring"

var approvalMessage = template.Must(template.New("approval").Parse(
	`Good news! Your infrastructure request "{{.Title}}" has been approved and is now scheduled for implementation. You can track its progress on the monitoring dashboard.`))

var rejectionMessage = template.Must(template.New("rejection").Parse(
	`Your infrastructure request "{{.Title}}" was not approved.{{if .Reason}} Reason: {{.Reason}}{{end}} You may revise and submit a new request.`))

// Mailer sends request decision emails.
type Mailer interface {
	SendApproval(ctx context.Context, req *model.Request)
	SendRejection(ctx context.Context, req *model.Request, reason string)
}

// Config carries the EmailJS account settings. Mailing is disabled when any
// of the identifiers is blank.
type Config struct {
	ServiceID           string
	ApprovalTemplateID  string
	RejectionTemplateID string
	UserID              string
}

// ConfigFromEnv reads EMAILJS_* settings.
func ConfigFromEnv() Config {
	return Config{
		ServiceID:           os.Getenv("EMAILJS_SERVICE_ID"),
		ApprovalTemplateID:  os.Getenv("EMAILJS_APPROVAL_TEMPLATE_ID"),
		RejectionTemplateID: os.Getenv("EMAILJS_REJECTION_TEMPLATE_ID"),
		UserID:              os.Getenv("EMAILJS_USER_ID"),
	}
}

type emailJSMailer struct {
	cfg      Config
	endpoint string
	client   *http.Client
}

// New returns an EmailJS-backed Mailer.
func New(cfg Config) Mailer {
	return &emailJSMailer{
		cfg:      cfg,
		endpoint: sendEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (m *emailJSMailer) enabled() bool {
	return m.cfg.ServiceID != "" && m.cfg.UserID != ""
}

func (m *emailJSMailer) SendApproval(ctx context.Context, req *model.Request) {
	var msg bytes.Buffer
	if err := approvalMessage.Execute(&msg, map[string]string{"Title": req.Title}); err != nil {
		log.Printf("mailer: render approval message: %v", err)
		return
	}
	params := templateParams(req, "Approved", msg.String())
	m.send(ctx, m.cfg.ApprovalTemplateID, params)
}

func (m *emailJSMailer) SendRejection(ctx context.Context, req *model.Request, reason string) {
	var msg bytes.Buffer
	data := map[string]string{"Title": req.Title, "Reason": reason}
	if err := rejectionMessage.Execute(&msg, data); err != nil {
		log.Printf("mailer: render rejection message: %v", err)
		return
	}
	params := templateParams(req, "Rejected", msg.String())
	params["rejection_reason"] = reason
	m.send(ctx, m.cfg.RejectionTemplateID, params)
}

func templateParams(req *model.Request, status, message string) map[string]string {
	toName := ""
	toEmail := ""
	if req.Creator != nil {
		toName = req.Creator.FullName
		toEmail = req.Creator.Email
	}
	return map[string]string{
		"to_name":          toName,
		"to_email":         toEmail,
		"from_name":        fromName,
		"request_title":    req.Title,
		"request_category": req.Category,
		"request_location": req.Location,
		"request_budget":   view.FormatBudget(req.Budget),
		"status":           status,
		"message":          message,
	}
}

func (m *emailJSMailer) send(ctx context.Context, templateID string, params map[string]string) {
	if !m.enabled() || templateID == "" {
		return
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      m.cfg.ServiceID,
		TemplateID:     templateID,
		UserID:         m.cfg.UserID,
		TemplateParams: params,
	})
	if err != nil {
		log.Printf("mailer: marshal payload: %v", err)
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("mailer: build request: %v", err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		log.Printf("mailer: send %q: %v", params["request_title"], err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("mailer: send %q: unexpected status %s", params["request_title"], resp.Status)
		return
	}
	log.Printf("Notification email sent for request %q (%s)", params["request_title"], params["status"])
}

// Noop returns a Mailer that drops every message. Used when EmailJS is not
// configured.
func Noop() Mailer { return noopMailer{} }

type noopMailer struct{}

func (noopMailer) SendApproval(context.Context, *model.Request)          {}
func (noopMailer) SendRejection(context.Context, *model.Request, string) {}

// FromEnv builds the mailer, falling back to Noop with a log line when the
// account settings are missing.
func FromEnv() Mailer {
	cfg := ConfigFromEnv()
	if cfg.ServiceID == "" || cfg.UserID == "" {
		log.Println("EMAILJS_SERVICE_ID or EMAILJS_USER_ID not set, email notifications disabled")
		return Noop()
	}
	return New(cfg)
}
