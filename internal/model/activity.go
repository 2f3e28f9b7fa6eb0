package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity action constants
const (
	ActionCreateBox       = "CREATE_BOX"
	ActionUpdateBox       = "UPDATE_BOX"
	ActionDeleteBox       = "DELETE_BOX"
	ActionChangeBoxStatus = "CHANGE_BOX_STATUS"
	ActionToggleChecklist = "TOGGLE_CHECKLIST"

	ActionUploadDocument     = "UPLOAD_DOCUMENT"
	ActionReclassifyDocument = "RECLASSIFY_DOCUMENT"
	ActionDeleteDocument     = "DELETE_DOCUMENT"

	ActionExportBoxes = "EXPORT_BOXES"

	ActionCreateContact = "CREATE_CONTACT"
	ActionUpdateContact = "UPDATE_CONTACT"
	ActionDeleteContact = "DELETE_CONTACT"

	ActionCreateOrganization = "CREATE_ORGANIZATION"
	ActionAddMember          = "ADD_MEMBER"
	ActionUpdateMemberRole   = "UPDATE_MEMBER_ROLE"
	ActionRemoveMember       = "REMOVE_MEMBER"

	ActionCreateTaxRate = "CREATE_TAX_RATE"
	ActionUpdateTaxRate = "UPDATE_TAX_RATE"
	ActionDeleteTaxRate = "DELETE_TAX_RATE"
)

// ActivityLog tracks Who, What, and When for every tenant-visible change.
// Status changes write their entry in the same transaction as the box update
// so a transition is never recorded without its audit trail.
type ActivityLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	BoxID          *uuid.UUID `gorm:"type:uuid;index" json:"box_id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for system actions
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action         string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID       string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName     string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details        string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the action
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}
