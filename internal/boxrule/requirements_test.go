package boxrule

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompletenessOrMatch(t *testing.T) {
	reqs := []RequiredDocument{
		{ID: "proof", Required: true, MatchingDocTypes: []string{model.DocTypeSlipTransfer, model.DocTypeSlipCheque}},
	}

	// Only the second family member present: still satisfied.
	result := CheckCompleteness(reqs, []string{model.DocTypeSlipCheque})
	assert.True(t, result.IsComplete)
	require.Len(t, result.Completed, 1)
	assert.Empty(t, result.Missing)

	// Unrelated document: unsatisfied.
	result = CheckCompleteness(reqs, []string{model.DocTypeReceipt})
	assert.False(t, result.IsComplete)
	require.Len(t, result.Missing, 1)
	assert.Equal(t, "proof", result.Missing[0].ID)
}

func TestExpenseSubTypeRequirements(t *testing.T) {
	tests := []struct {
		name        string
		subType     string
		hasWht      bool
		requiredIDs []string
	}{
		{"standard", model.ExpenseSubTypeStandard, false, []string{"tax_invoice", "payment_proof"}},
		{"no vat", model.ExpenseSubTypeNoVat, false, []string{"receipt", "payment_proof"}},
		{"petty cash has no required docs", model.ExpenseSubTypePettyCash, false, nil},
		{"foreign", model.ExpenseSubTypeForeign, false, []string{"foreign_invoice", "payment_proof"}},
		{"wht appended independent of sub-type", model.ExpenseSubTypePettyCash, true, []string{"wht_certificate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs := RequiredDocuments(model.BoxTypeExpense, tt.subType, false, tt.hasWht)

			var requiredIDs []string
			for _, r := range reqs {
				if r.Required {
					requiredIDs = append(requiredIDs, r.ID)
				}
			}
			assert.Equal(t, tt.requiredIDs, requiredIDs)
		})
	}
}

func TestPettyCashCompletenessWithNoDocuments(t *testing.T) {
	reqs := RequiredDocuments(model.BoxTypeExpense, model.ExpenseSubTypePettyCash, false, false)
	result := CheckCompleteness(reqs, nil)

	assert.True(t, result.IsComplete, "petty cash requires nothing")
	assert.Empty(t, result.Missing, "optional voucher must not appear in missing")
}

func TestIncomeRequirements(t *testing.T) {
	reqs := RequiredDocuments(model.BoxTypeIncome, "", true, true)

	byID := map[string]RequiredDocument{}
	for _, r := range reqs {
		byID[r.ID] = r
	}

	assert.True(t, byID["invoice"].Required)
	assert.False(t, byID["payment_proof"].Required)
	assert.True(t, byID["tax_invoice"].Required)
	assert.Equal(t, []string{model.DocTypeWhtCertReceived}, byID["wht_certificate"].MatchingDocTypes)
}

func TestAdjustmentBoxHasNoRequirements(t *testing.T) {
	assert.Empty(t, RequiredDocuments(model.BoxTypeAdjustment, "", true, true))
}
