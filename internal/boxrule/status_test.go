package boxrule

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransitionRejectsUnlistedPairs(t *testing.T) {
	legal := map[[2]string]bool{
		{model.BoxStatusDraft, model.BoxStatusSubmitted}:     true,
		{model.BoxStatusSubmitted, model.BoxStatusNeedDocs}:  true,
		{model.BoxStatusNeedDocs, model.BoxStatusSubmitted}:  true,
		{model.BoxStatusSubmitted, model.BoxStatusPending}:   true,
		{model.BoxStatusNeedDocs, model.BoxStatusPending}:    true,
		{model.BoxStatusPending, model.BoxStatusCompleted}:   true,
		{model.BoxStatusSubmitted, model.BoxStatusDraft}:     true,
		{model.BoxStatusNeedDocs, model.BoxStatusDraft}:      true,
		{model.BoxStatusPending, model.BoxStatusDraft}:       true,
		{model.BoxStatusPending, model.BoxStatusSubmitted}:   true,
		{model.BoxStatusCompleted, model.BoxStatusPending}:   true,
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			expected := legal[[2]string{from, to}]
			assert.Equal(t, expected, IsValidTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestRequiresReason(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		expects bool
	}{
		{"forward draft to submitted", model.BoxStatusDraft, model.BoxStatusSubmitted, false},
		{"forward submitted to pending", model.BoxStatusSubmitted, model.BoxStatusPending, false},
		{"forward need_docs resubmission", model.BoxStatusNeedDocs, model.BoxStatusSubmitted, false},
		{"forward pending to completed", model.BoxStatusPending, model.BoxStatusCompleted, false},
		{"backward submitted to draft", model.BoxStatusSubmitted, model.BoxStatusDraft, true},
		{"backward pending to draft", model.BoxStatusPending, model.BoxStatusDraft, true},
		{"backward pending to submitted", model.BoxStatusPending, model.BoxStatusSubmitted, true},
		{"backward completed to pending", model.BoxStatusCompleted, model.BoxStatusPending, true},
		{"illegal pair returns false", model.BoxStatusDraft, model.BoxStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expects, RequiresReason(tt.from, tt.to))
		})
	}
}

func TestEveryBackwardEdgeRequiresReason(t *testing.T) {
	// Backward means the target precedes the source in workflow order.
	order := map[string]int{}
	for i, s := range AllStatuses() {
		order[s] = i
	}

	for _, tr := range transitions {
		if order[tr.To] < order[tr.From] {
			assert.True(t, tr.RequiresReason, "backward edge %s -> %s must require a reason", tr.From, tr.To)
		} else {
			assert.False(t, tr.RequiresReason, "forward edge %s -> %s must not require a reason", tr.From, tr.To)
		}
	}
}

func TestIsRevertFromCompleted(t *testing.T) {
	assert.True(t, IsRevertFromCompleted(model.BoxStatusCompleted, model.BoxStatusPending))
	assert.False(t, IsRevertFromCompleted(model.BoxStatusPending, model.BoxStatusDraft))
	assert.False(t, IsRevertFromCompleted(model.BoxStatusCompleted, model.BoxStatusDraft), "not a legal edge")
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Needs documents", StatusLabel(model.BoxStatusNeedDocs))
	assert.Equal(t, "UNKNOWN_STATE", StatusLabel("UNKNOWN_STATE"))
}
