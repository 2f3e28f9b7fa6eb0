package boxrule

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemIDs(items []ChecklistItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestExpenseStandardVatChecklist(t *testing.T) {
	items := BuildChecklist(model.BoxTypeExpense, true, false, ChecklistFlags{}, nil)

	require.Len(t, items, 3)
	assert.Equal(t, []string{ItemPaid, ItemPaymentProof, ItemTaxInvoice}, itemIDs(items))
	for _, item := range items {
		assert.True(t, item.Required, "%s should be required", item.ID)
	}
}

func TestExpenseNoVatOmitsTaxInvoiceEntirely(t *testing.T) {
	items := BuildChecklist(model.BoxTypeExpense, false, false, ChecklistFlags{}, nil)

	_, found := FindItem(items, ItemTaxInvoice)
	assert.False(t, found, "tax invoice item must be absent, not pre-completed")
	assert.Equal(t, []string{ItemPaid, ItemPaymentProof}, itemIDs(items))
}

func TestWhtSentBlockedUntilWhtIssued(t *testing.T) {
	// No WHT certificate uploaded yet: wht_sent is toggleable in principle
	// but blocked by its dependency.
	items := BuildChecklist(model.BoxTypeExpense, false, true, ChecklistFlags{}, nil)

	whtSent, found := FindItem(items, ItemWhtSent)
	require.True(t, found)
	assert.True(t, whtSent.CanToggle)
	assert.True(t, whtSent.Blocked)
	assert.Equal(t, ItemWhtIssued, whtSent.DependsOn)

	// Certificate uploaded: the dependency completes and the block lifts.
	items = BuildChecklist(model.BoxTypeExpense, false, true, ChecklistFlags{},
		[]string{model.DocTypeWhtCertSent})

	whtIssued, found := FindItem(items, ItemWhtIssued)
	require.True(t, found)
	assert.True(t, whtIssued.Completed)

	whtSent, found = FindItem(items, ItemWhtSent)
	require.True(t, found)
	assert.False(t, whtSent.Blocked)
}

func TestManualFlagsDriveToggleableItems(t *testing.T) {
	items := BuildChecklist(model.BoxTypeExpense, false, false,
		ChecklistFlags{Paid: true}, nil)

	paid, found := FindItem(items, ItemPaid)
	require.True(t, found)
	assert.True(t, paid.Completed)
	assert.True(t, paid.CanToggle)
	assert.Empty(t, paid.DocTypes, "manual items are never doc-gated")
}

func TestPaymentProofSatisfiedByAnySlipType(t *testing.T) {
	for _, docType := range []string{model.DocTypeSlipTransfer, model.DocTypeSlipCheque, model.DocTypeSlipCash} {
		items := BuildChecklist(model.BoxTypeExpense, false, false, ChecklistFlags{}, []string{docType})
		proof, found := FindItem(items, ItemPaymentProof)
		require.True(t, found)
		assert.True(t, proof.Completed, "slip type %s should satisfy payment proof", docType)
	}
}

func TestIncomeChecklist(t *testing.T) {
	items := BuildChecklist(model.BoxTypeIncome, true, true, ChecklistFlags{}, nil)

	assert.Equal(t, []string{
		ItemInvoiceIssued, ItemTaxInvoiceIssued, ItemPaymentReceived,
		ItemPaymentProof, ItemWhtReceived,
	}, itemIDs(items))

	proof, found := FindItem(items, ItemPaymentProof)
	require.True(t, found)
	assert.False(t, proof.Required, "income payment proof is optional")
}

func TestCompletionPercent(t *testing.T) {
	tests := []struct {
		name     string
		items    []ChecklistItem
		expected int
	}{
		{"empty checklist is complete", nil, 100},
		{
			"only optional items is complete",
			[]ChecklistItem{{ID: "a", Required: false}},
			100,
		},
		{
			"half of required done",
			[]ChecklistItem{
				{ID: "a", Required: true, Completed: true},
				{ID: "b", Required: true},
			},
			50,
		},
		{
			"optional items excluded from denominator",
			[]ChecklistItem{
				{ID: "a", Required: true, Completed: true},
				{ID: "b", Required: false},
			},
			100,
		},
		{
			"one of three rounds to nearest",
			[]ChecklistItem{
				{ID: "a", Required: true, Completed: true},
				{ID: "b", Required: true},
				{ID: "c", Required: true},
			},
			33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompletionPercent(tt.items))
		})
	}
}
