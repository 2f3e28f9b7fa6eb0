package boxrule

import (
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBox() model.Box {
	contactID := uuid.New()
	return model.Box{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		ContactID:      &contactID,
		Contact:        &model.Contact{ID: contactID, Name: "Acme Supplies", TaxID: "0105558096231"},
		Name:           "Office rent March",
		Type:           model.BoxTypeExpense,
		ExpenseSubType: model.ExpenseSubTypePettyCash,
		Status:         model.BoxStatusSubmitted,
		SubTotal:       decimal.NewFromInt(1000),
		VatAmount:      decimal.NewFromInt(70),
		TotalAmount:    decimal.NewFromInt(1070),
		DocDate:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func issuesByCode(result ValidationResult, code string) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range result.Issues {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

func TestCleanBoxIsValid(t *testing.T) {
	box := newTestBox()
	result := Validate(ValidationInput{Box: box, Now: box.CreatedAt.Add(24 * time.Hour)})

	assert.True(t, result.IsValid)
	assert.False(t, result.HasWarnings)
	assert.Empty(t, result.Issues)
}

func TestDuplicateWindow(t *testing.T) {
	box := newTestBox()

	makePeer := func(daysApart int) model.Box {
		peer := newTestBox()
		peer.ID = uuid.New()
		peer.ContactID = box.ContactID
		peer.TotalAmount = box.TotalAmount
		peer.DocDate = box.DocDate.AddDate(0, 0, daysApart)
		return peer
	}

	tests := []struct {
		name      string
		daysApart int
		flagged   bool
	}{
		{"two days apart is a soft duplicate", 2, true},
		{"two days before is a soft duplicate", -2, true},
		{"exactly three days is inside the window", 3, true},
		{"ten days apart is not", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(ValidationInput{
				Box:        box,
				Candidates: []model.Box{makePeer(tt.daysApart)},
				Now:        box.CreatedAt,
			})
			dupes := issuesByCode(result, CodePossibleDuplicate)
			if tt.flagged {
				require.Len(t, dupes, 1)
				assert.Equal(t, SeverityWarning, dupes[0].Severity)
				assert.True(t, dupes[0].CanDismiss)
			} else {
				assert.Empty(t, dupes)
			}
		})
	}
}

func TestDuplicateCheckExcludesSelfAndOtherContacts(t *testing.T) {
	box := newTestBox()

	otherContact := uuid.New()
	peer := newTestBox()
	peer.ID = uuid.New()
	peer.ContactID = &otherContact
	peer.TotalAmount = box.TotalAmount
	peer.DocDate = box.DocDate

	result := Validate(ValidationInput{
		Box:        box,
		Candidates: []model.Box{box, peer}, // self plus a different-contact peer
		Now:        box.CreatedAt,
	})
	assert.Empty(t, issuesByCode(result, CodePossibleDuplicate))
}

func TestVatBoxRequiresCounterpartyTaxID(t *testing.T) {
	box := newTestBox()
	box.HasVat = true
	box.ExpenseSubType = model.ExpenseSubTypePettyCash // keep document requirements out of the way
	box.Contact.TaxID = "12345" // not 13 digits

	result := Validate(ValidationInput{Box: box, Now: box.CreatedAt})
	issues := issuesByCode(result, CodeMissingTaxID)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.False(t, result.IsValid)

	box.Contact.TaxID = "0105558096231"
	result = Validate(ValidationInput{Box: box, Now: box.CreatedAt})
	assert.Empty(t, issuesByCode(result, CodeMissingTaxID))
}

func TestStaleDraftWarning(t *testing.T) {
	box := newTestBox()
	box.Status = model.BoxStatusDraft

	fresh := Validate(ValidationInput{Box: box, Now: box.CreatedAt.Add(10 * 24 * time.Hour)})
	assert.Empty(t, issuesByCode(fresh, CodeStaleDraft))

	stale := Validate(ValidationInput{Box: box, Now: box.CreatedAt.Add(45 * 24 * time.Hour)})
	issues := issuesByCode(stale, CodeStaleDraft)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.True(t, stale.IsValid, "warnings alone do not invalidate")
	assert.True(t, stale.HasWarnings)
}

func TestDocumentAmountMismatch(t *testing.T) {
	box := newTestBox()
	doc := model.Document{
		ID:       uuid.New(),
		FileName: "slip.pdf",
		DocType:  model.DocTypeSlipTransfer,
		Amount:   decimal.NewFromInt(900), // box total is 1070
	}

	result := Validate(ValidationInput{Box: box, Documents: []model.Document{doc}, Now: box.CreatedAt})
	issues := issuesByCode(result, CodeAmountMismatch)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "slip.pdf")

	// Within tolerance: no issue.
	doc.Amount = decimal.RequireFromString("1070.50")
	result = Validate(ValidationInput{Box: box, Documents: []model.Document{doc}, Now: box.CreatedAt})
	assert.Empty(t, issuesByCode(result, CodeAmountMismatch))
}

func TestOcrExtractedAmountDisagreement(t *testing.T) {
	box := newTestBox()
	extracted := decimal.NewFromInt(1200)
	doc := model.Document{
		ID:              uuid.New(),
		FileName:        "invoice.pdf",
		DocType:         model.DocTypeTaxInvoice,
		Amount:          decimal.NewFromInt(1070),
		ExtractedAmount: &extracted,
	}

	result := Validate(ValidationInput{Box: box, Documents: []model.Document{doc}, Now: box.CreatedAt})
	require.Len(t, issuesByCode(result, CodeOcrMismatch), 1)
}

func TestMissingRequiredDocumentsAreErrors(t *testing.T) {
	box := newTestBox()
	box.ExpenseSubType = model.ExpenseSubTypeStandard

	result := Validate(ValidationInput{Box: box, Now: box.CreatedAt})
	missing := issuesByCode(result, CodeMissingDocument)
	require.Len(t, missing, 2, "standard expense needs tax invoice and payment proof")
	assert.False(t, result.IsValid)

	docs := []model.Document{
		{ID: uuid.New(), DocType: model.DocTypeTaxInvoiceAbb},
		{ID: uuid.New(), DocType: model.DocTypeSlipCheque},
	}
	result = Validate(ValidationInput{Box: box, Documents: docs, Now: box.CreatedAt})
	assert.Empty(t, issuesByCode(result, CodeMissingDocument))
	assert.True(t, result.IsValid)
}

func TestVatAmountDeviation(t *testing.T) {
	box := newTestBox()
	box.HasVat = true
	box.VatAmount = decimal.NewFromInt(100) // expected 70 at 7%
	rate := decimal.RequireFromString("0.07")

	result := Validate(ValidationInput{Box: box, VatRate: &rate, Now: box.CreatedAt})
	require.Len(t, issuesByCode(result, CodeVatAmountOff), 1)

	box.VatAmount = decimal.NewFromInt(70)
	result = Validate(ValidationInput{Box: box, VatRate: &rate, Now: box.CreatedAt})
	assert.Empty(t, issuesByCode(result, CodeVatAmountOff))
}
