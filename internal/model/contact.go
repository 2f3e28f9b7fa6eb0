package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact represents a counterparty (vendor or customer) of an organization.
// The tax id matters for VAT boxes: a VAT-bearing box whose contact lacks a
// valid 13-digit tax id fails validation.
type Contact struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	TaxID   string `gorm:"type:varchar(20)" json:"tax_id"`
	Branch  string `gorm:"type:varchar(10)" json:"branch"` // "00000" = head office
	Email   string `gorm:"type:varchar(255)" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`

	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
