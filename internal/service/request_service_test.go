package service

import (
	"context"
	"strings"
	"testing"

	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/repository"
	"github.com/roseyy14/project-monitoring/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRequestService(t *testing.T, db *gorm.DB) RequestService {
	t.Helper()
	uploader, err := storage.NewLocalUploader(t.TempDir(), "/uploads")
	require.NoError(t, err)
	return NewRequestService(
		repository.NewRequestRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		uploader,
		nil,
	)
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	svc := newRequestService(t, db)

	result, err := svc.Submit(context.Background(), SubmitRequestDTO{
		Title:    "Multi-purpose hall",
		Category: "public_building",
		Location: "San Roque",
		Budget:   "250000",
	}, barangay.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, "pending", result.Status)
	assert.Equal(t, "Public building", result.Category)
	assert.Equal(t, "₱250,000.00", result.BudgetDisplay)

	var audits []model.AuditLog
	require.NoError(t, db.Where("action = ?", model.ActionSubmitRequest).Find(&audits).Error)
	assert.Len(t, audits, 1)
}

func TestSubmitWithAttachment(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	svc := newRequestService(t, db)

	body := "annual investment plan"
	result, err := svc.Submit(context.Background(), SubmitRequestDTO{
		Title:    "Covered court",
		Category: "sports",
		Location: "San Roque",
	}, barangay.ID.String(), &FileUpload{
		Reader: strings.NewReader(body),
		Name:   "aip-2025.pdf",
		Size:   int64(len(body)),
	})
	require.NoError(t, err)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", result.ID).Error)
	doc := stored.AIPDocument.Data()
	assert.NotEmpty(t, doc.URL)
	assert.Equal(t, "aip-2025.pdf", doc.OriginalName)
	assert.Equal(t, "pdf", doc.Format)
}

func TestSubmitOversizedAttachmentLeavesNoRecord(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	svc := newRequestService(t, db)

	_, err := svc.Submit(context.Background(), SubmitRequestDTO{
		Title:    "Covered court",
		Category: "sports",
		Location: "San Roque",
	}, barangay.ID.String(), &FileUpload{
		Reader: strings.NewReader("x"),
		Name:   "huge.pdf",
		Size:   storage.MaxUploadSize + 1,
	})
	require.ErrorIs(t, err, storage.ErrFileTooLarge)

	var count int64
	require.NoError(t, db.Model(&model.Request{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitRejectsInvalidBudget(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	svc := newRequestService(t, db)

	for _, budget := range []string{"abc", "-5000"} {
		_, err := svc.Submit(context.Background(), SubmitRequestDTO{
			Title:    "Bad budget",
			Category: "other",
			Location: "San Roque",
			Budget:   budget,
		}, barangay.ID.String(), nil)
		require.Error(t, err, "budget %q", budget)
	}
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	req := seedPendingRequest(t, db, barangay)
	svc := newRequestService(t, db)

	uid := barangay.ID.String()
	require.NoError(t, svc.MarkSeen(context.Background(), req.ID.String(), uid))
	require.NoError(t, svc.MarkSeen(context.Background(), req.ID.String(), uid))

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	require.Len(t, stored.SeenBy, 1)
	assert.Equal(t, uid, stored.SeenBy[0])
}

func TestListMineFilter(t *testing.T) {
	db := setupTestDB(t)
	alice := seedUser(t, db, model.RoleBarangay)
	bob := seedUser(t, db, model.RoleBarangay)
	seedPendingRequest(t, db, alice)
	seedPendingRequest(t, db, bob)
	svc := newRequestService(t, db)

	all, err := svc.List(context.Background(), ListRequestsQuery{}, model.RoleAdmin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(context.Background(), ListRequestsQuery{Mine: true}, model.RoleBarangay, alice.ID.String())
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestGetScopesFieldsByRole(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	req := seedPendingRequest(t, db, barangay)
	svc := newRequestService(t, db)

	public, err := svc.Get(context.Background(), req.ID.String(), "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, public.Fields)
	assert.Empty(t, public.ProofImages)

	admin, err := svc.Get(context.Background(), req.ID.String(), model.RoleAdmin, "")
	require.NoError(t, err)

	hasSubmitter := false
	for _, f := range admin.Fields {
		if f.Label == "Submitted By" {
			hasSubmitter = true
			assert.Equal(t, barangay.FullName, f.Value)
		}
	}
	assert.True(t, hasSubmitter)
}
