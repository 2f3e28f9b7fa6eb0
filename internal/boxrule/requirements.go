package boxrule

import "backend/internal/model"

// Document-type families. A requirement is satisfied by ANY member of its
// family being present — e.g. a bank-transfer slip and a cheque slip both
// prove payment.
var (
	paymentProofTypes = []string{model.DocTypeSlipTransfer, model.DocTypeSlipCheque, model.DocTypeSlipCash}
	taxInvoiceTypes   = []string{model.DocTypeTaxInvoice, model.DocTypeTaxInvoiceAbb}
	receiptTypes      = []string{model.DocTypeReceipt, model.DocTypeInvoice}
	invoiceTypes      = []string{model.DocTypeInvoice}
	whtSentTypes      = []string{model.DocTypeWhtCertSent}
	whtReceivedTypes  = []string{model.DocTypeWhtCertReceived}
	voucherTypes      = []string{model.DocTypeCashVoucher}
)

// RequiredDocument is one evidence requirement for a box. MatchingDocTypes is
// the OR-set of document types that fulfill it.
type RequiredDocument struct {
	ID               string   `json:"id"`
	Label            string   `json:"label"`
	Required         bool     `json:"required"`
	MatchingDocTypes []string `json:"matching_doc_types"`
}

// Completeness is the result of matching uploaded documents against a
// requirement set.
type Completeness struct {
	IsComplete bool               `json:"is_complete"`
	Missing    []RequiredDocument `json:"missing"`
	Completed  []RequiredDocument `json:"completed"`
}

// expenseRequirements maps each expense sub-type to its base requirement set.
// The WHT requirement is appended independently of sub-type by
// RequiredDocuments whenever the box withholds tax.
var expenseRequirements = map[string][]RequiredDocument{
	model.ExpenseSubTypeStandard: {
		{ID: "tax_invoice", Label: "Tax invoice", Required: true, MatchingDocTypes: taxInvoiceTypes},
		{ID: "payment_proof", Label: "Payment proof", Required: true, MatchingDocTypes: paymentProofTypes},
	},
	model.ExpenseSubTypeNoVat: {
		{ID: "receipt", Label: "Receipt or invoice", Required: true, MatchingDocTypes: receiptTypes},
		{ID: "payment_proof", Label: "Payment proof", Required: true, MatchingDocTypes: paymentProofTypes},
	},
	model.ExpenseSubTypePettyCash: {
		{ID: "cash_voucher", Label: "Petty cash voucher", Required: false, MatchingDocTypes: voucherTypes},
	},
	model.ExpenseSubTypeForeign: {
		{ID: "foreign_invoice", Label: "Foreign invoice", Required: true, MatchingDocTypes: invoiceTypes},
		{ID: "payment_proof", Label: "Payment proof", Required: true, MatchingDocTypes: paymentProofTypes},
	},
}

var incomeRequirements = []RequiredDocument{
	{ID: "invoice", Label: "Invoice", Required: true, MatchingDocTypes: invoiceTypes},
	{ID: "payment_proof", Label: "Payment proof", Required: false, MatchingDocTypes: paymentProofTypes},
}

// RequiredDocuments resolves the evidence requirement set for a box.
// For EXPENSE boxes the set is keyed by sub-type; INCOME boxes share one set
// plus a tax-invoice requirement when VAT applies. ADJUSTMENT boxes carry no
// document requirements.
func RequiredDocuments(boxType, expenseSubType string, hasVat, hasWht bool) []RequiredDocument {
	var reqs []RequiredDocument

	switch boxType {
	case model.BoxTypeExpense:
		base, ok := expenseRequirements[expenseSubType]
		if !ok {
			base = expenseRequirements[model.ExpenseSubTypeStandard]
		}
		reqs = append(reqs, base...)
		if hasWht {
			reqs = append(reqs, RequiredDocument{
				ID: "wht_certificate", Label: "Withholding tax certificate",
				Required: true, MatchingDocTypes: whtSentTypes,
			})
		}
	case model.BoxTypeIncome:
		reqs = append(reqs, incomeRequirements...)
		if hasVat {
			reqs = append(reqs, RequiredDocument{
				ID: "tax_invoice", Label: "Tax invoice (issued)",
				Required: true, MatchingDocTypes: taxInvoiceTypes,
			})
		}
		if hasWht {
			reqs = append(reqs, RequiredDocument{
				ID: "wht_certificate", Label: "Withholding tax certificate (received)",
				Required: true, MatchingDocTypes: whtReceivedTypes,
			})
		}
	}

	return reqs
}

// CheckCompleteness matches the present document types against a requirement
// set. Only required requirements count toward IsComplete; optional ones are
// reported in Completed when satisfied but never in Missing.
func CheckCompleteness(requirements []RequiredDocument, presentDocTypes []string) Completeness {
	present := make(map[string]bool, len(presentDocTypes))
	for _, t := range presentDocTypes {
		present[t] = true
	}

	result := Completeness{IsComplete: true}
	for _, req := range requirements {
		if anyPresent(present, req.MatchingDocTypes) {
			result.Completed = append(result.Completed, req)
			continue
		}
		if req.Required {
			result.IsComplete = false
			result.Missing = append(result.Missing, req)
		}
	}

	return result
}

func anyPresent(present map[string]bool, docTypes []string) bool {
	for _, t := range docTypes {
		if present[t] {
			return true
		}
	}
	return false
}
