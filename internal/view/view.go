// Package view formats a single request into the role-appropriate field set
// for the detail modal. Disclosure is strictly additive by role; the output
// depends only on (request, role).
package view

import (
	"fmt"
	"strings"

	"github.com/roseyy14/project-monitoring/internal/model"

	"github.com/shopspring/decimal"
)

// Section labels in display order.
const (
	SectionGeneral    = "general"
	SectionProgress   = "progress"
	SectionContractor = "contractor"
	SectionSubmission = "submission"
	SectionRejection  = "rejection"
)

// Field is one rendered detail row.
type Field struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Section  string `json:"section"`
	Emphasis bool   `json:"emphasis,omitempty"`
	Link     string `json:"link,omitempty"`
}

// FormatRequestForRole produces the visible field set for a request as seen
// by the given role. Unknown or empty roles get the residence (public) view.
func FormatRequestForRole(r *model.Request, role string) []Field {
	role = model.NormalizeRole(role)
	status := r.WorkflowStatus()

	fields := []Field{
		{Label: "Title", Value: r.Title, Section: SectionGeneral, Emphasis: true},
		{Label: "Category", Value: r.Category, Section: SectionGeneral},
		{Label: "Location", Value: r.Location, Section: SectionGeneral},
		{Label: "Status", Value: string(status), Section: SectionGeneral},
		{Label: "Budget", Value: FormatBudget(r.Budget), Section: SectionGeneral},
		{Label: "Details", Value: r.Details, Section: SectionGeneral},
	}

	if doc := r.AIPDocument.Data(); doc.URL != "" {
		fields = append(fields, Field{
			Label:   "AIP Document",
			Value:   docLabel(doc),
			Section: SectionGeneral,
			Link:    doc.URL,
		})
	}

	if role == model.RoleBarangay {
		if r.Urgency != "" {
			fields = append(fields, Field{Label: "Urgency", Value: r.Urgency, Section: SectionGeneral})
		}
		if r.BudgetYear != "" {
			fields = append(fields, Field{Label: "Target Budget Year", Value: r.BudgetYear, Section: SectionGeneral})
		}
		if r.Contact != "" {
			fields = append(fields, Field{Label: "Contact", Value: r.Contact, Section: SectionGeneral})
		}
		// Barangay officials see the decline reason only when one exists;
		// the block is omitted entirely otherwise.
		if status == model.StatusRejected && r.ReasonForDecline != "" {
			fields = append(fields, Field{
				Label: "Reason for Decline", Value: r.ReasonForDecline,
				Section: SectionRejection, Emphasis: true,
			})
		}
	}

	if role == model.RoleEngineer || role == model.RoleAdmin {
		fields = append(fields,
			Field{
				Label:   "Physical Status",
				Value:   fmt.Sprintf("%d%% Completed", r.Progress),
				Section: SectionProgress, Emphasis: true,
			},
			Field{
				Label: "Financial Status",
				Value: fmt.Sprintf("%s%% Utilized (%s)",
					utilizationPercent(r.AmountSpent, r.Budget), FormatPeso(r.AmountSpent)),
				Section: SectionProgress, Emphasis: true,
			},
		)

		fields = append(fields,
			Field{Label: "Company Name", Value: dashIfEmpty(r.ContractorName), Section: SectionContractor},
			Field{Label: "Office Address", Value: dashIfEmpty(r.ContractorAddress), Section: SectionContractor},
		)
		if r.ContractAmount != nil {
			fields = append(fields, Field{Label: "Contract Amount", Value: FormatPeso(*r.ContractAmount), Section: SectionContractor})
		}
		if r.ContractDate != "" {
			fields = append(fields, Field{Label: "Contract Date", Value: r.ContractDate, Section: SectionContractor})
		}
	}

	if role == model.RoleAdmin {
		fields = append(fields, Field{
			Label: "Submitted By", Value: submitterLabel(r.Creator), Section: SectionSubmission,
		})
		if !r.CreatedAt.IsZero() {
			fields = append(fields, Field{
				Label: "Submitted On", Value: r.CreatedAt.Format("Jan 2, 2006 3:04 PM"), Section: SectionSubmission,
			})
		}
		if !r.UpdatedAt.IsZero() {
			fields = append(fields, Field{
				Label: "Last Updated", Value: r.UpdatedAt.Format("Jan 2, 2006 3:04 PM"), Section: SectionSubmission,
			})
		}
		// Admins always see a rejection block for rejected requests, with an
		// explicit fallback when no reason was recorded.
		if status == model.StatusRejected {
			reason := r.ReasonForDecline
			if reason == "" {
				reason = "No reason provided"
			}
			fields = append(fields, Field{
				Label: "Reason for Decline", Value: reason,
				Section: SectionRejection, Emphasis: r.ReasonForDecline != "",
			})
		}
	}

	return fields
}

// HasField reports whether the rendered set contains a row with the label.
func HasField(fields []Field, label string) bool {
	for _, f := range fields {
		if f.Label == label {
			return true
		}
	}
	return false
}

// FormatBudget applies the display null policy: absent budgets render as
// "Not specified" rather than zero.
func FormatBudget(budget *decimal.Decimal) string {
	if budget == nil {
		return "Not specified"
	}
	return FormatPeso(*budget)
}

// FormatPeso renders an amount as Philippine pesos with comma grouping and
// two decimal places.
func FormatPeso(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return sign + "₱" + b.String() + "." + frac
}

func utilizationPercent(spent decimal.Decimal, budget *decimal.Decimal) string {
	if budget == nil || !budget.IsPositive() {
		return "0"
	}
	return spent.Div(*budget).Mul(decimal.NewFromInt(100)).StringFixed(1)
}

func docLabel(doc model.AIPDocument) string {
	name := doc.OriginalName
	if name == "" {
		name = "AIP Document"
	}
	if doc.Size > 0 {
		return fmt.Sprintf("%s (%.2f MB)", name, float64(doc.Size)/1024/1024)
	}
	return name
}

func submitterLabel(u *model.User) string {
	if u == nil {
		return "Unknown"
	}
	if u.FullName != "" {
		return u.FullName
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID.String()
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
