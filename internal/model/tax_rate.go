package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxType enum constants
const (
	TaxTypeVAT = "VAT"
	TaxTypeWHT = "WHT"
)

// TaxRate stores statutory rates with temporal validity. Box creation picks
// the rate active on the box's document date; the validation engine uses the
// same lookup to flag VAT amounts that drifted from subtotal * rate.
type TaxRate struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxType       string          `gorm:"type:varchar(10);not null;index" json:"tax_type"` // VAT, WHT
	Rate          decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`         // e.g. 0.07 = 7%
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"` // nullable = currently active
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
