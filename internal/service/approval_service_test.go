package service

import (
	"context"
	"testing"

	"github.com/roseyy14/project-monitoring/internal/mailer"
	"github.com/roseyy14/project-monitoring/internal/model"
	"github.com/roseyy14/project-monitoring/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.RefreshToken{}, &model.Request{}, &model.AuditLog{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	user := &model.User{
		FullName: "Test " + role,
		Email:    role + "+" + uuid.New().String()[:8] + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPendingRequest(t *testing.T, db *gorm.DB, creator *model.User) *model.Request {
	t.Helper()
	budget := decimal.NewFromInt(100000)
	req := &model.Request{
		Title:       "Drainage improvement",
		Category:    "drainage",
		Location:    "San Isidro",
		Budget:      &budget,
		Status:      model.RequestStatusPendingApproval,
		CreatedByID: &creator.ID,
	}
	require.NoError(t, db.Create(req).Error)
	return req
}

func newApprovalService(db *gorm.DB) ApprovalService {
	return NewApprovalService(
		repository.NewRequestRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		mailer.Noop(),
		nil,
	)
}

func TestApproveSetsTrackingState(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	admin := seedUser(t, db, model.RoleAdmin)
	req := seedPendingRequest(t, db, barangay)

	svc := newApprovalService(db)

	result, err := svc.Approve(context.Background(), req.ID.String(), admin.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "approved", result.Status)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	require.NotNil(t, stored.IsApproved)
	assert.True(t, *stored.IsApproved)
	assert.Equal(t, model.RequestStatusApproved, stored.Status)
	assert.Equal(t, model.ProjectNotStarted, stored.ProjectStatus)
	assert.Equal(t, 0, stored.Progress)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, admin.ID, *stored.ApprovedBy)

	var audits []model.AuditLog
	require.NoError(t, db.Where("action = ?", model.ActionApproveRequest).Find(&audits).Error)
	assert.Len(t, audits, 1)
}

func TestApproveRequiresPending(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	admin := seedUser(t, db, model.RoleAdmin)
	req := seedPendingRequest(t, db, barangay)

	svc := newApprovalService(db)

	_, err := svc.Approve(context.Background(), req.ID.String(), admin.ID.String())
	require.NoError(t, err)

	// A second decision on the same request must fail.
	_, err = svc.Approve(context.Background(), req.ID.String(), admin.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already approved")

	_, err = svc.Reject(context.Background(), req.ID.String(), admin.ID.String(), "changed my mind")
	require.Error(t, err)
}

func TestRejectStoresReason(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	admin := seedUser(t, db, model.RoleAdmin)
	req := seedPendingRequest(t, db, barangay)

	svc := newApprovalService(db)

	result, err := svc.Reject(context.Background(), req.ID.String(), admin.ID.String(), "Duplicate of an existing project")
	require.NoError(t, err)
	assert.Equal(t, "rejected", result.Status)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	require.NotNil(t, stored.IsApproved)
	assert.False(t, *stored.IsApproved)
	assert.Equal(t, model.RequestStatusRejected, stored.Status)
	assert.Equal(t, "Duplicate of an existing project", stored.ReasonForDecline)
}

func TestRejectRequiresReason(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	admin := seedUser(t, db, model.RoleAdmin)
	req := seedPendingRequest(t, db, barangay)

	svc := newApprovalService(db)

	for _, reason := range []string{"", "   "} {
		_, err := svc.Reject(context.Background(), req.ID.String(), admin.ID.String(), reason)
		require.Error(t, err)
	}

	// The request must be untouched after the failed attempts.
	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Nil(t, stored.IsApproved)
	assert.Equal(t, model.RequestStatusPendingApproval, stored.Status)
	assert.Empty(t, stored.ReasonForDecline)
}

func TestDecisionResetsSeenBy(t *testing.T) {
	db := setupTestDB(t)
	barangay := seedUser(t, db, model.RoleBarangay)
	admin := seedUser(t, db, model.RoleAdmin)
	req := seedPendingRequest(t, db, barangay)

	req.SeenBy = []string{barangay.ID.String()}
	require.NoError(t, db.Save(req).Error)

	svc := newApprovalService(db)
	_, err := svc.Approve(context.Background(), req.ID.String(), admin.ID.String())
	require.NoError(t, err)

	var stored model.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Empty(t, stored.SeenBy)
}
