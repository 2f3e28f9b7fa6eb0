package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentType enum constants. Several types can satisfy the same checklist
// requirement (e.g. any SLIP_* proves payment) — that mapping lives in
// internal/boxrule, not here.
const (
	DocTypeTaxInvoice      = "TAX_INVOICE"
	DocTypeTaxInvoiceAbb   = "TAX_INVOICE_ABB" // abbreviated tax invoice
	DocTypeInvoice         = "INVOICE"
	DocTypeReceipt         = "RECEIPT"
	DocTypeSlipTransfer    = "SLIP_TRANSFER"
	DocTypeSlipCheque      = "SLIP_CHEQUE"
	DocTypeSlipCash        = "SLIP_CASH"
	DocTypeWhtCertSent     = "WHT_CERT_SENT"
	DocTypeWhtCertReceived = "WHT_CERT_RECEIVED"
	DocTypeCashVoucher     = "CASH_VOUCHER"
	DocTypeOther           = "OTHER"
)

// Document is an uploaded evidence file attached to a box. Created on upload,
// mutated only by re-classification, deleted explicitly.
type Document struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BoxID          uuid.UUID `gorm:"type:uuid;not null;index" json:"box_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	DocType  string `gorm:"type:varchar(30);not null;index" json:"doc_type"`
	FileName string `gorm:"type:varchar(255);not null" json:"file_name"`
	FileURL  string `gorm:"type:text;not null" json:"file_url"`

	// Amount is the manually entered document total; ExtractedAmount is what
	// OCR read off the file, when available. Disagreement between the two is
	// surfaced by the validation engine, never silently reconciled.
	Amount          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	ExtractedAmount *decimal.Decimal `gorm:"type:decimal(18,4)" json:"extracted_amount"`

	DocDate *time.Time `gorm:"type:date" json:"doc_date"`
	Note    string     `gorm:"type:text" json:"note"`

	SubDocuments []SubDocument `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"sub_documents,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// SubDocument is a page or attachment split out of a parent document,
// classified independently (e.g. a slip scanned behind a tax invoice).
type SubDocument struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	DocType    string    `gorm:"type:varchar(30);not null" json:"doc_type"`
	FileURL    string    `gorm:"type:text;not null" json:"file_url"`
	PageNo     int       `gorm:"type:int;default:1" json:"page_no"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidDocType reports whether t is a defined document type.
func ValidDocType(t string) bool {
	switch t {
	case DocTypeTaxInvoice, DocTypeTaxInvoiceAbb, DocTypeInvoice, DocTypeReceipt,
		DocTypeSlipTransfer, DocTypeSlipCheque, DocTypeSlipCash,
		DocTypeWhtCertSent, DocTypeWhtCertReceived, DocTypeCashVoucher, DocTypeOther:
		return true
	}
	return false
}
