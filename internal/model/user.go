package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants. "residence" is the default for self-service signups and
// carries no elevated access.
const (
	RoleResidence = "residence"
	RoleBarangay  = "barangay_official"
	RoleEngineer  = "engineer"
	RoleAdmin     = "admin"
)

// User represents the central user entity for logic and database structure
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName  string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role      string         `gorm:"type:varchar(50);not null" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// NormalizeRole canonicalizes stored role strings. Legacy records carry
// spelling variants of the barangay role ("barangay official",
// "baranggay_official", ...), all of which map to RoleBarangay.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	r = strings.ReplaceAll(r, " ", "_")
	if r == "baranggay_official" {
		return RoleBarangay
	}
	return r
}

// ValidRole reports whether role (after normalization) names a known role.
func ValidRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleResidence, RoleBarangay, RoleEngineer, RoleAdmin:
		return true
	}
	return false
}

// LandingPath maps a role to the page the client should open after login.
func LandingPath(role string) string {
	switch NormalizeRole(role) {
	case RoleAdmin:
		return "/admin"
	case RoleEngineer:
		return "/engineer"
	case RoleBarangay:
		return "/barangay"
	default:
		return "/residence"
	}
}
