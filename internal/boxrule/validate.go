package boxrule

import (
	"fmt"
	"regexp"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

// Issue severities. Errors block export-readiness, warnings are advisory,
// info is a suggestion.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Validation issue codes.
const (
	CodeAmountMismatch    = "amount_mismatch"
	CodeOcrMismatch       = "ocr_mismatch"
	CodeMissingTaxID      = "missing_tax_id"
	CodeStaleDraft        = "stale_draft"
	CodeMissingDocument   = "missing_document"
	CodePossibleDuplicate = "possible_duplicate"
	CodeVatAmountOff      = "vat_amount_off"
)

// AmountTolerance is the absolute disagreement allowed between a document
// amount and the box total before a mismatch is raised. Scanned documents
// routinely differ by satang rounding.
var AmountTolerance = decimal.NewFromInt(1)

// StaleDraftAge is how long a box may sit in DRAFT before validation nags.
const StaleDraftAge = 30 * 24 * time.Hour

// DuplicateWindowDays is the ± window on document dates within which two
// boxes with equal amount and contact are flagged as soft duplicates.
const DuplicateWindowDays = 3

var thaiTaxIDPattern = regexp.MustCompile(`^\d{13}$`)

// ValidationIssue is one finding from the validation battery. Issue IDs are
// stable for a given box snapshot so clients can track dismissals locally;
// dismissals are never persisted server-side.
type ValidationIssue struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	CanDismiss bool   `json:"can_dismiss"`
}

// ValidationResult aggregates a validation run. IsValid is true iff no
// error-severity issues exist; HasWarnings is independent of validity.
type ValidationResult struct {
	IsValid     bool              `json:"is_valid"`
	HasWarnings bool              `json:"has_warnings"`
	Issues      []ValidationIssue `json:"issues"`
	Summary     string            `json:"summary"`
}

// ValidationInput is the fully-materialized snapshot the engine runs over.
// Candidates are the organization's potential duplicate peers, fetched by the
// caller (same org, equal total amount, doc date near the box's); the engine
// re-checks the window and excludes the box itself.
type ValidationInput struct {
	Box        model.Box
	Documents  []model.Document
	Candidates []model.Box
	VatRate    *decimal.Decimal // statutory VAT rate active on the doc date, nil when unknown
	Now        time.Time
}

type validationRule func(ValidationInput) []ValidationIssue

// validationRules is the unordered battery. Each rule is independent and may
// produce zero or more issues.
var validationRules = []validationRule{
	checkDocumentAmounts,
	checkOcrAgreement,
	checkCounterpartyTaxID,
	checkStaleDraft,
	checkMissingDocuments,
	checkDuplicates,
	checkVatAmount,
}

// Validate runs the full rule battery over a box snapshot.
func Validate(input ValidationInput) ValidationResult {
	var issues []ValidationIssue
	for _, rule := range validationRules {
		issues = append(issues, rule(input)...)
	}

	var errs, warns int
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		}
	}

	return ValidationResult{
		IsValid:     errs == 0,
		HasWarnings: warns > 0,
		Issues:      issues,
		Summary:     fmt.Sprintf("%d error(s), %d warning(s), %d issue(s) total", errs, warns, len(issues)),
	}
}

func checkDocumentAmounts(input ValidationInput) []ValidationIssue {
	var issues []ValidationIssue
	for _, doc := range input.Documents {
		if doc.Amount.IsZero() {
			continue
		}
		diff := doc.Amount.Sub(input.Box.TotalAmount).Abs()
		if diff.GreaterThan(AmountTolerance) {
			issues = append(issues, ValidationIssue{
				ID:       fmt.Sprintf("%s:%s", CodeAmountMismatch, doc.ID),
				Code:     CodeAmountMismatch,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("Document %q amount %s differs from box total %s",
					doc.FileName, doc.Amount.StringFixed(2), input.Box.TotalAmount.StringFixed(2)),
				Suggestion: "Check whether the document belongs to this box or correct the box total.",
				CanDismiss: true,
			})
		}
	}
	return issues
}

func checkOcrAgreement(input ValidationInput) []ValidationIssue {
	var issues []ValidationIssue
	for _, doc := range input.Documents {
		if doc.ExtractedAmount == nil || doc.Amount.IsZero() {
			continue
		}
		diff := doc.ExtractedAmount.Sub(doc.Amount).Abs()
		if diff.GreaterThan(AmountTolerance) {
			issues = append(issues, ValidationIssue{
				ID:       fmt.Sprintf("%s:%s", CodeOcrMismatch, doc.ID),
				Code:     CodeOcrMismatch,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("Document %q: extracted amount %s disagrees with entered amount %s",
					doc.FileName, doc.ExtractedAmount.StringFixed(2), doc.Amount.StringFixed(2)),
				Suggestion: "Re-read the document or correct the entered amount.",
				CanDismiss: true,
			})
		}
	}
	return issues
}

func checkCounterpartyTaxID(input ValidationInput) []ValidationIssue {
	if !input.Box.HasVat {
		return nil
	}
	if input.Box.Contact != nil && thaiTaxIDPattern.MatchString(input.Box.Contact.TaxID) {
		return nil
	}

	msg := "VAT box has no counterparty"
	if input.Box.Contact != nil {
		msg = fmt.Sprintf("Counterparty %q has no valid 13-digit tax ID", input.Box.Contact.Name)
	}
	return []ValidationIssue{{
		ID:         CodeMissingTaxID,
		Code:       CodeMissingTaxID,
		Severity:   SeverityError,
		Message:    msg,
		Suggestion: "A valid counterparty tax ID is required to claim input VAT.",
	}}
}

func checkStaleDraft(input ValidationInput) []ValidationIssue {
	if input.Box.Status != model.BoxStatusDraft {
		return nil
	}
	age := input.Now.Sub(input.Box.CreatedAt)
	if age <= StaleDraftAge {
		return nil
	}
	return []ValidationIssue{{
		ID:         CodeStaleDraft,
		Code:       CodeStaleDraft,
		Severity:   SeverityWarning,
		Message:    fmt.Sprintf("Box has been in draft for %d days", int(age.Hours()/24)),
		Suggestion: "Submit the box or archive it.",
		CanDismiss: true,
	}}
}

func checkMissingDocuments(input ValidationInput) []ValidationIssue {
	reqs := RequiredDocuments(input.Box.Type, input.Box.ExpenseSubType, input.Box.HasVat, input.Box.HasWht)
	completeness := CheckCompleteness(reqs, docTypesOf(input.Documents))

	var issues []ValidationIssue
	for _, missing := range completeness.Missing {
		issues = append(issues, ValidationIssue{
			ID:         fmt.Sprintf("%s:%s", CodeMissingDocument, missing.ID),
			Code:       CodeMissingDocument,
			Severity:   SeverityError,
			Message:    fmt.Sprintf("Missing required document: %s", missing.Label),
			Suggestion: "Upload one of the accepted document types.",
		})
	}
	return issues
}

func checkDuplicates(input ValidationInput) []ValidationIssue {
	box := input.Box
	if box.ContactID == nil {
		return nil
	}

	var issues []ValidationIssue
	for _, peer := range input.Candidates {
		if peer.ID == box.ID || peer.ContactID == nil || *peer.ContactID != *box.ContactID {
			continue
		}
		if !peer.TotalAmount.Equal(box.TotalAmount) {
			continue
		}
		days := peer.DocDate.Sub(box.DocDate).Hours() / 24
		if days < 0 {
			days = -days
		}
		if days > DuplicateWindowDays {
			continue
		}
		issues = append(issues, ValidationIssue{
			ID:       fmt.Sprintf("%s:%s", CodePossibleDuplicate, peer.ID),
			Code:     CodePossibleDuplicate,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Possible duplicate of box %q (%s on %s)",
				peer.Name, peer.TotalAmount.StringFixed(2), peer.DocDate.Format("2006-01-02")),
			Suggestion: "Compare the two boxes and delete one if they record the same transaction.",
			CanDismiss: true,
		})
	}
	return issues
}

func checkVatAmount(input ValidationInput) []ValidationIssue {
	box := input.Box
	if !box.HasVat || input.VatRate == nil || box.SubTotal.IsZero() {
		return nil
	}
	expected := box.SubTotal.Mul(*input.VatRate)
	if box.VatAmount.Sub(expected).Abs().LessThanOrEqual(AmountTolerance) {
		return nil
	}
	return []ValidationIssue{{
		ID:       CodeVatAmountOff,
		Code:     CodeVatAmountOff,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("VAT amount %s differs from %s%% of subtotal (%s)",
			box.VatAmount.StringFixed(2),
			input.VatRate.Mul(decimal.NewFromInt(100)).StringFixed(0),
			expected.StringFixed(2)),
		Suggestion: "Recheck the VAT breakdown on the tax invoice.",
		CanDismiss: true,
	}}
}

func docTypesOf(docs []model.Document) []string {
	types := make([]string, 0, len(docs))
	for _, d := range docs {
		types = append(types, d.DocType)
		for _, sub := range d.SubDocuments {
			types = append(types, sub.DocType)
		}
	}
	return types
}
