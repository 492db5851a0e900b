package service

import (
	"context"
	"strings"
	"testing"

	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/repository"
	"github.com/roseyy14/project-monitoring/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProgressService(t *testing.T, db *gorm.DB) ProgressService {
	t.Helper()
	uploader, err := storage.NewLocalUploader(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return NewProgressService(
		repository.NewRequestRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		uploader,
		nil,
	)
}

func seedApprovedRequest(t *testing.T, db *gorm.DB, creator *model.User) *model.Request {
	t.Helper()
	req := seedPendingRequest(t, db, creator)
	approved := true
	req.IsApproved = &approved
	req.Status = model.RequestStatusApproved
	req.ProjectStatus = model.ProjectNotStarted
	require.NoError(t, db.Save(req).Error)
	return req
}

func intPtr(v int) *int { return &v }

func TestUpdateProgressRecordsExpense(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	engineer := seedUser(t, db, model.RoleEngineer)
	req := seedApprovedRequest(t, db, barangay)

	svc := newProgressService(t, db)

	_, err := svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), UpdateProgressDTO{
		ProjectStatus: model.ProjectInProgress,
		Progress:      intPtr(30),
		ExpenseAmount: "25000",
		ExpenseDate:   "2025-03-05",
		ExpenseNote:   "Gravel delivery",
	}, ProgressUploads{})
	require.NoError(t, err)

	_, err = svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), UpdateProgressDTO{
		ExpenseAmount: "10000",
		ExpenseDate:   "2025-04-01",
	}, ProgressUploads{})
	require.NoError(t, err)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)

	// The running total accumulates and every line survives.
	assert.True(t, stored.AmountSpent.Equal(decimal.NewFromInt(35000)), "got %s", stored.AmountSpent)
	require.Len(t, stored.Expenses, 2)
	assert.Equal(t, "2025-03-05", stored.Expenses[0].Date)
	assert.Equal(t, "Gravel delivery", stored.Expenses[0].Note)
	assert.Equal(t, model.ProjectInProgress, stored.ProjectStatus)
	assert.Equal(t, 30, stored.Progress)
}

func TestUpdateProgressRejectsPendingProject(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	engineer := seedUser(t, db, model.RoleEngineer)
	req := seedPendingRequest(t, db, barangay)

	svc := newProgressService(t, db)

	_, err := svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), UpdateProgressDTO{
		Progress: intPtr(10),
	}, ProgressUploads{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only approved projects")
}

func TestFinishRequiresCertificate(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	engineer := seedUser(t, db, model.RoleEngineer)
	req := seedApprovedRequest(t, db, barangay)

	svc := newProgressService(t, db)

	_, err := svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), UpdateProgressDTO{
		ProjectStatus: model.ProjectFinished,
		ExpenseAmount: "5000",
	}, ProgressUploads{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate")

	// The failed transition must leave spending untouched.
	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.True(t, stored.AmountSpent.IsZero())
	assert.Equal(t, model.ProjectNotStarted, stored.ProjectStatus)
}

func TestFinishWithCertificate(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	engineer := seedUser(t, db, model.RoleEngineer)
	req := seedApprovedRequest(t, db, barangay)

	svc := newProgressService(t, db)

	cert := &FileUpload{
		Reader: strings.NewReader("certificate body"),
		Name:   "completion.pdf",
		Size:   int64(len("certificate body")),
	}

	result, err := svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), UpdateProgressDTO{
		ProjectStatus: model.ProjectFinished,
	}, ProgressUploads{Certificate: cert})
	require.NoError(t, err)
	assert.Equal(t, "completed", result.DisplayBucket)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, model.ProjectFinished, stored.ProjectStatus)
	assert.Equal(t, 100, stored.Progress)
	require.Len(t, stored.Certificates, 1)
	assert.Equal(t, model.CertificateTypeCompletion, stored.Certificates[0].Type)
	assert.NotEmpty(t, stored.Certificates[0].URL)
}

func TestProgressBounds(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	engineer := seedUser(t, db, model.RoleEngineer)
	req := seedApprovedRequest(t, db, barangay)

	svc := newProgressService(t, db)

	for _, progress := range []int{-1, 101} {
		_, err := svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), UpdateProgressDTO{
			Progress: intPtr(progress),
		}, ProgressUploads{})
		require.Error(t, err, "progress %d", progress)
	}
}

func TestOverlappingUpdatesLastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	engineer := seedUser(t, db, model.RoleEngineer)
	req := seedApprovedRequest(t, db, barangay)

	svc := newProgressService(t, db)

	// Two engineers read the same state and save independently. There is no
	// version check, so the second save overwrites the first writer's scalar
	// fields while additive fields keep both contributions.
	first := UpdateProgressDTO{
		ProjectStatus:  model.ProjectInProgress,
		Progress:       intPtr(40),
		Notes:          "Roadbed graded",
		ContractorName: "BuildRight Corp",
		ExpenseAmount:  "20000",
		ExpenseDate:    "2025-05-02",
	}
	second := UpdateProgressDTO{
		ProjectStatus:  model.ProjectInProgress,
		Progress:       intPtr(25),
		Notes:          "Drainage pipes laid",
		ContractorName: "Santos Builders",
		ExpenseAmount:  "12000",
		ExpenseDate:    "2025-05-03",
	}

	_, err := svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), first, ProgressUploads{})
	require.NoError(t, err)
	_, err = svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), second, ProgressUploads{})
	require.NoError(t, err)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)

	// Scalars hold only the later writer's values.
	assert.Equal(t, 25, stored.Progress)
	assert.Equal(t, "Drainage pipes laid", stored.Notes)
	assert.Equal(t, "Santos Builders", stored.ContractorName)

	// Expense lines and the running total are append-only and survive both.
	assert.True(t, stored.AmountSpent.Equal(decimal.NewFromInt(32000)), "got %s", stored.AmountSpent)
	require.Len(t, stored.Expenses, 2)
	assert.Equal(t, "2025-05-02", stored.Expenses[0].Date)
	assert.Equal(t, "2025-05-03", stored.Expenses[1].Date)
}

func TestContractorFieldsFromInput(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	engineer := seedUser(t, db, model.RoleEngineer)
	req := seedApprovedRequest(t, db, barangay)

	svc := newProgressService(t, db)

	_, err := svc.UpdateProgress(context.Background(), req.ID.String(), engineer.ID.String(), UpdateProgressDTO{
		ContractorName:    "BuildRight Corp",
		ContractorAddress: "Poblacion, San Isidro",
		ContractAmount:    "95000.50",
		ContractDate:      "2025-02-01",
	}, ProgressUploads{})
	require.NoError(t, err)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, "BuildRight Corp", stored.ContractorName)
	assert.Equal(t, "Poblacion, San Isidro", stored.ContractorAddress)
	require.NotNil(t, stored.ContractAmount)
	assert.True(t, stored.ContractAmount.Equal(decimal.RequireFromString("95000.50")))
	assert.Equal(t, "2025-02-01", stored.ContractDate)
}
