package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization member role constants
const (
	MemberRoleOwner      = "OWNER"
	MemberRoleAdmin      = "ADMIN"
	MemberRoleAccounting = "ACCOUNTING"
	MemberRoleStaff      = "STAFF"
)

// Organization represents a business (or accounting firm) that owns boxes,
// documents, and contacts. All tenant-scoped queries filter by organization id.
type Organization struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	TaxID     string         `gorm:"type:varchar(20)" json:"tax_id"` // 13-digit Thai tax identification number
	Address   string         `gorm:"type:text" json:"address"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Member links a user to an organization with a role.
// The role gates status reverts out of COMPLETED (OWNER/ADMIN only).
type Member struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_member_org_user,unique" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index:idx_member_org_user,unique" json:"user_id"`
	User           *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role           string    `gorm:"type:varchar(20);not null" json:"role"` // OWNER, ADMIN, ACCOUNTING, STAFF
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ValidMemberRole reports whether role is one of the defined member roles.
func ValidMemberRole(role string) bool {
	switch role {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleAccounting, MemberRoleStaff:
		return true
	}
	return false
}

// ElevatedRole reports whether role may revert a COMPLETED box.
func ElevatedRole(role string) bool {
	return role == MemberRoleOwner || role == MemberRoleAdmin
}
