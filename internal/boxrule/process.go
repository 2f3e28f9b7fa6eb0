package boxrule

import (
	"math"

	"backend/internal/model"
)

// Step statuses for the UI process bar.
const (
	StepPending   = "pending"
	StepCurrent   = "current"
	StepCompleted = "completed"
	StepSkipped   = "skipped"
)

// Process step IDs.
const (
	StepCreated         = "created"
	StepPaid            = "paid"
	StepProofUploaded   = "proof_uploaded"
	StepTaxInvoice      = "tax_invoice"
	StepWhtIssued       = "wht_issued"
	StepWhtSent         = "wht_sent"
	StepInvoiceIssued   = "invoice_issued"
	StepPaymentReceived = "payment_received"
	StepDone            = "completed"
)

// Step is one entry in the UI-facing process sequence. Applies is false when
// the step's preconditions do not hold for this box (e.g. VAT steps on a
// non-VAT box); such steps render as skipped and are excluded from progress.
type Step struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Applies bool   `json:"applies"`
}

// StepContext is the box snapshot the step calculators read from.
type StepContext struct {
	Status          string
	Flags           ChecklistFlags
	PresentDocTypes []string
}

type stepSpec struct {
	id           string
	label        string
	vatOnly      bool
	whtOnly      bool
	skipSubTypes []string
}

var expenseSteps = []stepSpec{
	{id: StepCreated, label: "Created"},
	{id: StepPaid, label: "Paid"},
	// Petty cash is settled from the cash box; there is no payment proof to
	// collect (mirrors the requirement table).
	{id: StepProofUploaded, label: "Payment proof uploaded", skipSubTypes: []string{model.ExpenseSubTypePettyCash}},
	{id: StepTaxInvoice, label: "Tax invoice received", vatOnly: true},
	{id: StepWhtIssued, label: "WHT certificate issued", whtOnly: true},
	{id: StepWhtSent, label: "WHT certificate sent", whtOnly: true},
	{id: StepDone, label: "Completed"},
}

var incomeSteps = []stepSpec{
	{id: StepCreated, label: "Created"},
	{id: StepInvoiceIssued, label: "Invoice issued"},
	{id: StepTaxInvoice, label: "Tax invoice issued", vatOnly: true},
	{id: StepPaymentReceived, label: "Payment received"},
	{id: StepWhtIssued, label: "WHT certificate received", whtOnly: true},
	{id: StepDone, label: "Completed"},
}

// stepDone maps each step id to its completion predicate. Predicates read
// only the snapshot; there is no branching or parallel-step support.
var stepDone = map[string]func(StepContext) bool{
	StepCreated: func(StepContext) bool { return true },
	StepPaid:    func(ctx StepContext) bool { return ctx.Flags.Paid },
	StepProofUploaded: func(ctx StepContext) bool {
		return hasAnyDocType(ctx.PresentDocTypes, paymentProofTypes)
	},
	StepTaxInvoice: func(ctx StepContext) bool {
		return hasAnyDocType(ctx.PresentDocTypes, taxInvoiceTypes)
	},
	StepWhtIssued: func(ctx StepContext) bool {
		return hasAnyDocType(ctx.PresentDocTypes, whtSentTypes) ||
			hasAnyDocType(ctx.PresentDocTypes, whtReceivedTypes)
	},
	StepWhtSent: func(ctx StepContext) bool { return ctx.Flags.WhtSent },
	StepInvoiceIssued: func(ctx StepContext) bool {
		return hasAnyDocType(ctx.PresentDocTypes, invoiceTypes)
	},
	StepPaymentReceived: func(ctx StepContext) bool { return ctx.Flags.ReceivedPayment },
	StepDone:            func(ctx StepContext) bool { return ctx.Status == model.BoxStatusCompleted },
}

// ProcessSteps produces the ordered step sequence for a box configuration.
func ProcessSteps(boxType, expenseSubType string, hasVat, hasWht bool) []Step {
	specs := expenseSteps
	if boxType == model.BoxTypeIncome {
		specs = incomeSteps
	}

	steps := make([]Step, 0, len(specs))
	for _, spec := range specs {
		applies := true
		if spec.vatOnly && !hasVat {
			applies = false
		}
		if spec.whtOnly && !hasWht {
			applies = false
		}
		for _, skip := range spec.skipSubTypes {
			if boxType == model.BoxTypeExpense && expenseSubType == skip {
				applies = false
			}
		}
		steps = append(steps, Step{ID: spec.id, Label: spec.label, Applies: applies})
	}
	return steps
}

// CalculateStepStatuses assigns each step one of pending/current/completed/
// skipped. The current step is the first applicable, non-completed step in
// sequence — a single cursor.
func CalculateStepStatuses(steps []Step, ctx StepContext) []string {
	statuses := make([]string, len(steps))
	currentAssigned := false

	for i, step := range steps {
		if !step.Applies {
			statuses[i] = StepSkipped
			continue
		}

		done := stepDone[step.ID]
		if done != nil && done(ctx) {
			statuses[i] = StepCompleted
			continue
		}

		if !currentAssigned {
			statuses[i] = StepCurrent
			currentAssigned = true
		} else {
			statuses[i] = StepPending
		}
	}

	return statuses
}

// CalculateProgress is the share of applicable steps completed, rounded to
// the nearest whole percent. Skipped steps are excluded from the denominator.
func CalculateProgress(steps []Step, ctx StepContext) int {
	statuses := CalculateStepStatuses(steps, ctx)

	var applicable, done int
	for i := range steps {
		if statuses[i] == StepSkipped {
			continue
		}
		applicable++
		if statuses[i] == StepCompleted {
			done++
		}
	}

	if applicable == 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(applicable)))
}

func hasAnyDocType(present []string, family []string) bool {
	for _, p := range present {
		for _, f := range family {
			if p == f {
				return true
			}
		}
	}
	return false
}
