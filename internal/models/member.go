package models

import "time"

// Role names for memberships. Owner can do everything including company and
// billing mutation; admin manages the team and all business data; sales is
// limited to quotes and customers.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleSales = "sales"
)

// ValidRole reports whether s is one of the recognized membership roles.
func ValidRole(s string) bool {
	return s == RoleOwner || s == RoleAdmin || s == RoleSales
}

// Membership ties a user to a company with a role. Every tenant-scoped query
// is filtered by the caller's membership company id.
type Membership struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_member_user_company"`
	CompanyID uint   `gorm:"not null;uniqueIndex:idx_member_user_company;index"`
	Role      string `gorm:"not null;default:'sales'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Invite is a pending team invitation. Token is emailed as part of the
// signup link; AcceptedAt stays nil until redeemed.
type Invite struct {
	ID         uint   `gorm:"primaryKey"`
	CompanyID  uint   `gorm:"not null;index"`
	Email      string `gorm:"not null;index"`
	Role       string `gorm:"not null"`
	Token      string `gorm:"size:36;uniqueIndex"`
	InvitedBy  uint
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
