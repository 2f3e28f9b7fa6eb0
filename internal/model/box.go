package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BoxType enum constants
const (
	BoxTypeExpense    = "EXPENSE"
	BoxTypeIncome     = "INCOME"
	BoxTypeAdjustment = "ADJUSTMENT"
)

// ExpenseSubType enum constants
const (
	ExpenseSubTypeStandard  = "STANDARD"
	ExpenseSubTypeNoVat     = "NO_VAT"
	ExpenseSubTypePettyCash = "PETTY_CASH"
	ExpenseSubTypeForeign   = "FOREIGN"
)

// BoxStatus enum constants — the canonical lifecycle.
// Legal movements between these are defined by the transition table in
// internal/boxrule; they are never compared positionally.
const (
	BoxStatusDraft     = "DRAFT"
	BoxStatusSubmitted = "SUBMITTED"
	BoxStatusNeedDocs  = "NEED_DOCS"
	BoxStatusPending   = "PENDING"
	BoxStatusCompleted = "COMPLETED"
)

// PaymentStatus enum constants
const (
	PaymentStatusUnpaid  = "UNPAID"
	PaymentStatusPartial = "PARTIAL"
	PaymentStatusPaid    = "PAID"
)

// Box is the unit of work: one expense or income transaction collecting its
// evidence documents on the way to being export-ready.
//
// The manual checklist flags (Paid, WhtSent, ReceivedPayment) are the source
// of truth for human-toggleable checklist items; document presence is the
// source of truth for everything else. Checklist state, process steps, and
// validation issues are derived on read and never stored here.
//
// The composite index on (organization_id, total_amount, doc_date) backs the
// soft-duplicate candidate query.
type Box struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index;index:idx_box_dup,priority:1" json:"organization_id"`
	ContactID      *uuid.UUID `gorm:"type:uuid;index" json:"contact_id"`
	Contact        *Contact   `gorm:"foreignKey:ContactID" json:"contact,omitempty"`

	Name           string `gorm:"type:varchar(255)" json:"name"`
	Type           string `gorm:"type:varchar(20);not null;index" json:"type"`             // EXPENSE, INCOME, ADJUSTMENT
	ExpenseSubType string `gorm:"type:varchar(20);default:'STANDARD'" json:"expense_sub_type"` // STANDARD, NO_VAT, PETTY_CASH, FOREIGN
	Status         string `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	PaymentStatus  string `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"payment_status"`

	// Tax flags
	HasVat bool `gorm:"default:false" json:"has_vat"`
	HasWht bool `gorm:"default:false" json:"has_wht"`

	// Manual checklist flags
	Paid            bool `gorm:"default:false" json:"paid"`
	WhtSent         bool `gorm:"default:false" json:"wht_sent"`
	ReceivedPayment bool `gorm:"default:false" json:"received_payment"`

	// Amounts
	SubTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"sub_total"`
	VatAmount   decimal.Decimal `gorm:"column:vat_amount;type:decimal(18,4);not null;default:0" json:"vat_amount"`
	WhtAmount   decimal.Decimal `gorm:"column:wht_amount;type:decimal(18,4);not null;default:0" json:"wht_amount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;index:idx_box_dup,priority:2" json:"total_amount"`

	DocDate     time.Time  `gorm:"type:date;not null;index:idx_box_dup,priority:3" json:"doc_date"`
	SubmittedAt *time.Time `json:"submitted_at"`
	BookedAt    *time.Time `json:"booked_at"`
	ArchivedAt  *time.Time `json:"archived_at"`

	Description string `gorm:"type:text" json:"description"`

	// Version guards status mutations: a write must carry the version it
	// read, otherwise it is rejected as stale.
	Version int `gorm:"not null;default:1" json:"version"`

	Documents []Document `gorm:"foreignKey:BoxID" json:"documents,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidBoxType reports whether t is a defined box type.
func ValidBoxType(t string) bool {
	return t == BoxTypeExpense || t == BoxTypeIncome || t == BoxTypeAdjustment
}

// ValidExpenseSubType reports whether t is a defined expense sub-type.
func ValidExpenseSubType(t string) bool {
	switch t {
	case ExpenseSubTypeStandard, ExpenseSubTypeNoVat, ExpenseSubTypePettyCash, ExpenseSubTypeForeign:
		return true
	}
	return false
}
