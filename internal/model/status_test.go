package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		isApproved *bool
		status     string
		want       Status
	}{
		{"approved flag wins", boolPtr(true), "anything", StatusApproved},
		{"approved with rejected status string", boolPtr(true), RequestStatusRejected, StatusApproved},
		{"rejected needs both flag and status", boolPtr(false), RequestStatusRejected, StatusRejected},
		{"false flag without rejected status is pending", boolPtr(false), RequestStatusPendingApproval, StatusPending},
		{"absent flag is pending", nil, RequestStatusPendingApproval, StatusPending},
		{"absent flag with rejected status is pending", nil, RequestStatusRejected, StatusPending},
		{"zero values are pending", nil, "", StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.isApproved, tt.status))
		})
	}
}

func TestClassifyProject(t *testing.T) {
	tests := []struct {
		name          string
		isApproved    *bool
		status        string
		projectStatus string
		want          ProjectBucket
	}{
		{"rejected passes through", boolPtr(false), RequestStatusRejected, ProjectInProgress, BucketRejected},
		{"pending passes through", nil, "", ProjectInProgress, BucketPending},
		{"approved not started", boolPtr(true), RequestStatusApproved, ProjectNotStarted, BucketApproved},
		{"approved empty project status", boolPtr(true), RequestStatusApproved, "", BucketApproved},
		{"in progress becomes ongoing", boolPtr(true), RequestStatusApproved, ProjectInProgress, BucketOngoing},
		{"finished becomes completed", boolPtr(true), RequestStatusApproved, ProjectFinished, BucketCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyProject(tt.isApproved, tt.status, tt.projectStatus))
		})
	}
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleBarangay, NormalizeRole("Barangay Official"))
	assert.Equal(t, RoleBarangay, NormalizeRole("baranggay_official"))
	assert.Equal(t, RoleAdmin, NormalizeRole(" ADMIN "))
	assert.Equal(t, RoleEngineer, NormalizeRole("engineer"))
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/admin", LandingPath(RoleAdmin))
	assert.Equal(t, "/engineer", LandingPath(RoleEngineer))
	assert.Equal(t, "/barangay", LandingPath("Barangay Official"))
	assert.Equal(t, "/residence", LandingPath(RoleResidence))
	assert.Equal(t, "/residence", LandingPath("unknown"))
}
