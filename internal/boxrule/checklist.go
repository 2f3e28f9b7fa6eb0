package boxrule

import (
	"math"

	"backend/internal/model"
)

// Checklist item IDs.
const (
	ItemPaid             = "paid"
	ItemPaymentProof     = "payment_proof"
	ItemTaxInvoice       = "tax_invoice"
	ItemWhtIssued        = "wht_issued"
	ItemWhtSent          = "wht_sent"
	ItemInvoiceIssued    = "invoice_issued"
	ItemTaxInvoiceIssued = "tax_invoice_issued"
	ItemPaymentReceived  = "payment_received"
	ItemWhtReceived      = "wht_received"
)

// ChecklistItem is one derived step in completing a box's documentation.
// Items are never persisted; completion mirrors either document presence
// (doc-gated items) or a manual flag (CanToggle items), never both.
type ChecklistItem struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Completed   bool     `json:"completed"`
	CanToggle   bool     `json:"can_toggle"`
	Blocked     bool     `json:"blocked"` // toggleable but its dependency is incomplete
	DocTypes    []string `json:"doc_types,omitempty"`
	DependsOn   string   `json:"depends_on,omitempty"`
}

// ChecklistFlags are the persisted manual-toggle states from the box row.
type ChecklistFlags struct {
	Paid            bool
	WhtSent         bool
	ReceivedPayment bool
}

// itemSpec declares one checklist item as data. Either docTypes (doc-gated)
// or flag (manual) is set, never both. appliesVat/appliesWht gate emission on
// the box's tax flags; nil means always emitted.
type itemSpec struct {
	id          string
	label       string
	description string
	required    bool
	docTypes    []string
	flag        func(ChecklistFlags) bool
	vatOnly     bool
	whtOnly     bool
	dependsOn   string
}

var expenseChecklist = []itemSpec{
	{
		id: ItemPaid, label: "Paid",
		description: "The expense has been paid to the vendor.",
		required:    true,
		flag:        func(f ChecklistFlags) bool { return f.Paid },
	},
	{
		id: ItemPaymentProof, label: "Payment proof uploaded",
		description: "A transfer, cheque, or cash slip proving payment.",
		required:    true,
		docTypes:    paymentProofTypes,
	},
	{
		id: ItemTaxInvoice, label: "Tax invoice received",
		description: "Full or abbreviated tax invoice from the vendor.",
		required:    true,
		docTypes:    taxInvoiceTypes,
		vatOnly:     true,
	},
	{
		id: ItemWhtIssued, label: "WHT certificate issued",
		description: "Withholding tax certificate issued to the vendor.",
		required:    true,
		docTypes:    whtSentTypes,
		whtOnly:     true,
	},
	{
		id: ItemWhtSent, label: "WHT certificate sent",
		description: "The issued certificate was delivered to the vendor.",
		required:    true,
		flag:        func(f ChecklistFlags) bool { return f.WhtSent },
		whtOnly:     true,
		dependsOn:   ItemWhtIssued,
	},
}

var incomeChecklist = []itemSpec{
	{
		id: ItemInvoiceIssued, label: "Invoice issued",
		required: true,
		docTypes: invoiceTypes,
	},
	{
		id: ItemTaxInvoiceIssued, label: "Tax invoice issued",
		required: true,
		docTypes: taxInvoiceTypes,
		vatOnly:  true,
	},
	{
		id: ItemPaymentReceived, label: "Payment received",
		required: true,
		flag:     func(f ChecklistFlags) bool { return f.ReceivedPayment },
	},
	{
		id: ItemPaymentProof, label: "Payment proof uploaded",
		required: false,
		docTypes: paymentProofTypes,
	},
	{
		id: ItemWhtReceived, label: "WHT certificate received",
		description: "Withholding tax certificate received from the customer.",
		required:    true,
		docTypes:    whtReceivedTypes,
		whtOnly:     true,
	},
}

// BuildChecklist derives the ordered checklist for a box snapshot. Items that
// do not apply (VAT items on a non-VAT box, WHT items on a non-WHT box) are
// absent entirely, not emitted as pre-completed.
func BuildChecklist(boxType string, hasVat, hasWht bool, flags ChecklistFlags, presentDocTypes []string) []ChecklistItem {
	specs := checklistSpecs(boxType)

	present := make(map[string]bool, len(presentDocTypes))
	for _, t := range presentDocTypes {
		present[t] = true
	}

	items := make([]ChecklistItem, 0, len(specs))
	completed := make(map[string]bool, len(specs))

	for _, spec := range specs {
		if spec.vatOnly && !hasVat {
			continue
		}
		if spec.whtOnly && !hasWht {
			continue
		}

		item := ChecklistItem{
			ID:          spec.id,
			Label:       spec.label,
			Description: spec.description,
			Required:    spec.required,
			CanToggle:   spec.flag != nil,
			DocTypes:    spec.docTypes,
			DependsOn:   spec.dependsOn,
		}

		if spec.flag != nil {
			item.Completed = spec.flag(flags)
		} else {
			item.Completed = anyPresent(present, spec.docTypes)
		}

		// A toggleable item with an unmet dependency cannot be toggled on.
		// Specs are ordered so dependencies precede their dependents.
		if spec.dependsOn != "" && !completed[spec.dependsOn] {
			item.Blocked = true
		}

		completed[spec.id] = item.Completed
		items = append(items, item)
	}

	return items
}

func checklistSpecs(boxType string) []itemSpec {
	if boxType == model.BoxTypeIncome {
		return incomeChecklist
	}
	return expenseChecklist
}

// CompletionPercent is the share of required checklist items completed,
// rounded to the nearest whole percent. A checklist with no required items
// counts as fully complete.
func CompletionPercent(items []ChecklistItem) int {
	var required, done int
	for _, item := range items {
		if !item.Required {
			continue
		}
		required++
		if item.Completed {
			done++
		}
	}

	if required == 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(required)))
}

// FindItem returns the checklist item with the given id.
func FindItem(items []ChecklistItem, id string) (ChecklistItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return ChecklistItem{}, false
}
