package view

import (
	"testing"
	"time"

	"github.com/roseyy14/project-monitoring/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func sampleRequest() *model.Request {
	budget := decimal.NewFromInt(150000)
	contract := decimal.NewFromInt(140000)
	return &model.Request{
		Title:             "Farm-to-market road",
		Category:          "Road construction",
		Location:          "San Isidro",
		Details:           "Concrete paving of 1.2 km",
		Urgency:           "High",
		BudgetYear:        "2025",
		Contact:           "0917 000 0000",
		Budget:            &budget,
		AmountSpent:       decimal.NewFromInt(70000),
		IsApproved:        boolPtr(true),
		Status:            model.RequestStatusApproved,
		ProjectStatus:     model.ProjectInProgress,
		Progress:          45,
		ContractorName:    "BuildRight Corp",
		ContractorAddress: "Poblacion, San Isidro",
		ContractAmount:    &contract,
		ContractDate:      "2025-02-01",
		Creator:           &model.User{FullName: "Maria Santos", Email: "maria@example.com"},
		CreatedAt:         time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC),
	}
}

func TestDisclosureByRole(t *testing.T) {
	req := sampleRequest()

	tests := []struct {
		role    string
		visible []string
		hidden  []string
	}{
		{
			role:    model.RoleResidence,
			visible: []string{"Title", "Category", "Location", "Status", "Budget", "Details"},
			hidden:  []string{"Urgency", "Contact", "Physical Status", "Company Name", "Submitted By"},
		},
		{
			role:    model.RoleBarangay,
			visible: []string{"Title", "Urgency", "Target Budget Year", "Contact"},
			hidden:  []string{"Physical Status", "Company Name", "Submitted By"},
		},
		{
			role:    model.RoleEngineer,
			visible: []string{"Title", "Physical Status", "Financial Status", "Company Name", "Office Address", "Contract Amount"},
			hidden:  []string{"Urgency", "Contact", "Submitted By"},
		},
		{
			role:    model.RoleAdmin,
			visible: []string{"Title", "Physical Status", "Company Name", "Submitted By", "Submitted On", "Last Updated"},
			hidden:  []string{"Urgency", "Contact"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			fields := FormatRequestForRole(req, tt.role)
			for _, label := range tt.visible {
				assert.True(t, HasField(fields, label), "role %s should see %q", tt.role, label)
			}
			for _, label := range tt.hidden {
				assert.False(t, HasField(fields, label), "role %s should not see %q", tt.role, label)
			}
		})
	}
}

func TestUnknownRoleGetsPublicView(t *testing.T) {
	req := sampleRequest()
	public := FormatRequestForRole(req, "")
	resident := FormatRequestForRole(req, model.RoleResidence)
	assert.Equal(t, resident, public)
}

func TestRejectionReasonVisibility(t *testing.T) {
	req := sampleRequest()
	req.IsApproved = boolPtr(false)
	req.Status = model.RequestStatusRejected
	req.ReasonForDecline = "Duplicate of an existing project"

	barangay := FormatRequestForRole(req, model.RoleBarangay)
	assert.True(t, HasField(barangay, "Reason for Decline"))

	resident := FormatRequestForRole(req, model.RoleResidence)
	assert.False(t, HasField(resident, "Reason for Decline"))

	// Admins get an explicit fallback when no reason exists; barangay
	// officials simply see no block.
	req.ReasonForDecline = ""
	admin := FormatRequestForRole(req, model.RoleAdmin)
	found := false
	for _, f := range admin {
		if f.Label == "Reason for Decline" {
			found = true
			assert.Equal(t, "No reason provided", f.Value)
		}
	}
	assert.True(t, found)

	barangay = FormatRequestForRole(req, model.RoleBarangay)
	assert.False(t, HasField(barangay, "Reason for Decline"))
}

func TestFormatBudget(t *testing.T) {
	assert.Equal(t, "Not specified", FormatBudget(nil))

	v := decimal.NewFromInt(1234567)
	assert.Equal(t, "₱1,234,567.00", FormatBudget(&v))
}

func TestFormatPeso(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₱0.00"},
		{"999", "₱999.00"},
		{"1000", "₱1,000.00"},
		{"50000", "₱50,000.00"},
		{"1234567.891", "₱1,234,567.89"},
		{"-1500", "-₱1,500.00"},
	}
	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, FormatPeso(d), "input %s", tt.in)
	}
}

func TestUtilization(t *testing.T) {
	req := sampleRequest()
	fields := FormatRequestForRole(req, model.RoleEngineer)

	for _, f := range fields {
		if f.Label == "Financial Status" {
			assert.Contains(t, f.Value, "46.7%")
			assert.Contains(t, f.Value, "₱70,000.00")
			return
		}
	}
	t.Fatal("Financial Status field missing")
}

func TestNilBudgetUtilizationIsZero(t *testing.T) {
	req := sampleRequest()
	req.Budget = nil

	fields := FormatRequestForRole(req, model.RoleEngineer)
	for _, f := range fields {
		if f.Label == "Financial Status" {
			assert.Contains(t, f.Value, "0% Utilized")
			return
		}
	}
	t.Fatal("Financial Status field missing")
}
