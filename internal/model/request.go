package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Workflow status constants for Request.Status
const (
	RequestStatusPendingApproval = "pending_approval"
	RequestStatusApproved        = "approved"
	RequestStatusRejected        = "rejected"
)

// ProjectStatus enum constants (engineer-maintained execution state)
const (
	ProjectNotStarted = "not-started"
	ProjectInProgress = "in-progress"
	ProjectFinished   = "finished"
)

// CertificateTypeCompletion is the only certificate type currently issued.
const CertificateTypeCompletion = "completion_certificate"

// ExpenseLine is a single disbursement recorded against an approved project.
// Lines are append-only: there is no edit or delete path.
type ExpenseLine struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"` // YYYY-MM-DD
	Note   string          `json:"note"`
}

// Certificate is an uploaded completion document reference.
type Certificate struct {
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
	Type       string    `json:"type"`
}

// AIPDocument is the planning document attached at submission time.
type AIPDocument struct {
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	Format       string `json:"format"`
	Size         int64  `json:"size"`
	OriginalName string `json:"original_name"`
}

// Request represents a single infrastructure-project submission and its full
// lifecycle state: submitted by a barangay official, approved or rejected by
// an admin, then progressed by an engineer until finished.
type Request struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title    string    `gorm:"type:varchar(255);not null" json:"title"`
	Category string    `gorm:"type:varchar(100);not null;index" json:"category"`
	Location string    `gorm:"type:varchar(255);not null;index" json:"location"`
	Details  string    `gorm:"type:text" json:"details"`
	Urgency  string    `gorm:"type:varchar(50)" json:"urgency"`
	// BudgetYear is the target fiscal year the submitter requested funding for.
	BudgetYear string `gorm:"type:varchar(10)" json:"budget_year"`
	Contact    string `gorm:"type:varchar(255)" json:"contact"`

	// Budget is nullable: nil means "not specified" in detail views but is
	// treated as zero in all arithmetic. These are two distinct policies.
	Budget      *decimal.Decimal                 `gorm:"type:decimal(18,2)" json:"budget"`
	AmountSpent decimal.Decimal                  `gorm:"type:decimal(18,2);default:0" json:"amount_spent"`
	Expenses    datatypes.JSONSlice[ExpenseLine] `json:"expenses"`

	// IsApproved is tri-state: true / false / nil (pending). The derived
	// status must always be computed through ClassifyStatus, never inline.
	IsApproved       *bool  `gorm:"index" json:"is_approved"`
	Status           string `gorm:"type:varchar(30);not null;default:'pending_approval';index" json:"status"`
	ReasonForDecline string `gorm:"type:text" json:"reason_for_decline,omitempty"`
	ProjectStatus    string `gorm:"type:varchar(20)" json:"project_status,omitempty"`
	Progress         int    `gorm:"default:0" json:"progress"`
	Notes            string `gorm:"type:text" json:"notes,omitempty"`

	AIPDocument  datatypes.JSONType[AIPDocument]  `json:"aip_document"`
	ProofImages  datatypes.JSONSlice[string]      `json:"proof_images"`
	Certificates datatypes.JSONSlice[Certificate] `json:"certificates"`

	// SeenBy lists user IDs that have viewed the latest status change; used
	// to suppress the "new update" indicator. Set semantics, append via
	// MarkSeen only.
	SeenBy datatypes.JSONSlice[string] `json:"seen_by"`

	ContractorName    string           `gorm:"type:varchar(255)" json:"contractor_name,omitempty"`
	ContractorAddress string           `gorm:"type:text" json:"contractor_address,omitempty"`
	ContractAmount    *decimal.Decimal `gorm:"type:decimal(18,2)" json:"contract_amount,omitempty"`
	ContractDate      string           `gorm:"type:varchar(10)" json:"contract_date,omitempty"`

	CreatedByID *uuid.UUID `gorm:"type:uuid;index" json:"created_by_id"`
	Creator     *User      `gorm:"foreignKey:CreatedByID" json:"creator,omitempty"`
	ApprovedBy  *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an ID when the database does not (e.g. sqlite in tests).
func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BudgetOrZero applies the arithmetic null policy: absent budget counts as 0.
func (r *Request) BudgetOrZero() decimal.Decimal {
	if r.Budget == nil {
		return decimal.Zero
	}
	return *r.Budget
}

// HasSeen reports whether uid is already in the SeenBy set.
func (r *Request) HasSeen(uid string) bool {
	for _, s := range r.SeenBy {
		if s == uid {
			return true
		}
	}
	return false
}
