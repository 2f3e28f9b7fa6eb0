// Package boxrule is the pure rule core for the box lifecycle: the status
// transition table, the checklist generator, the required-document resolver,
// the process-step calculator, and the validation engine. Everything in this
// package is a synchronous function over fully-materialized inputs — no I/O,
// no clock reads, no hidden state. Callers fetch the box snapshot and pass
// it in; mutation happens in the service layer.
package boxrule

import "backend/internal/model"

// transition is one legal edge in the box status graph.
type transition struct {
	From           string
	To             string
	RequiresReason bool
}

// transitions is the complete set of legal status movements. Edges moving the
// workflow forward never require a reason; edges moving it backward always do.
// Anything not listed here is illegal.
var transitions = []transition{
	// forward
	{From: model.BoxStatusDraft, To: model.BoxStatusSubmitted},
	{From: model.BoxStatusSubmitted, To: model.BoxStatusNeedDocs},
	{From: model.BoxStatusNeedDocs, To: model.BoxStatusSubmitted},
	{From: model.BoxStatusSubmitted, To: model.BoxStatusPending},
	{From: model.BoxStatusNeedDocs, To: model.BoxStatusPending},
	{From: model.BoxStatusPending, To: model.BoxStatusCompleted},

	// backward — revert with audit reason
	{From: model.BoxStatusSubmitted, To: model.BoxStatusDraft, RequiresReason: true},
	{From: model.BoxStatusNeedDocs, To: model.BoxStatusDraft, RequiresReason: true},
	{From: model.BoxStatusPending, To: model.BoxStatusDraft, RequiresReason: true},
	{From: model.BoxStatusPending, To: model.BoxStatusSubmitted, RequiresReason: true},
	{From: model.BoxStatusCompleted, To: model.BoxStatusPending, RequiresReason: true},
}

var statusLabels = map[string]string{
	model.BoxStatusDraft:     "Draft",
	model.BoxStatusSubmitted: "Submitted",
	model.BoxStatusNeedDocs:  "Needs documents",
	model.BoxStatusPending:   "Pending review",
	model.BoxStatusCompleted: "Completed",
}

// AllStatuses lists every status in workflow order.
func AllStatuses() []string {
	return []string{
		model.BoxStatusDraft,
		model.BoxStatusSubmitted,
		model.BoxStatusNeedDocs,
		model.BoxStatusPending,
		model.BoxStatusCompleted,
	}
}

func findTransition(current, target string) (transition, bool) {
	for _, t := range transitions {
		if t.From == current && t.To == target {
			return t, true
		}
	}
	return transition{}, false
}

// IsValidTransition reports whether the box may move from current to target.
func IsValidTransition(current, target string) bool {
	_, ok := findTransition(current, target)
	return ok
}

// RequiresReason reports whether the transition must carry a non-empty reason.
// Returns false for transitions that are not in the table at all; callers
// check IsValidTransition first.
func RequiresReason(current, target string) bool {
	t, ok := findTransition(current, target)
	return ok && t.RequiresReason
}

// IsRevertFromCompleted reports whether the transition leaves COMPLETED.
// The transition table is role-agnostic; the service layer restricts these
// edges to OWNER/ADMIN members.
func IsRevertFromCompleted(current, target string) bool {
	return current == model.BoxStatusCompleted && IsValidTransition(current, target)
}

// StatusLabel returns the display label for a status, or the raw value when
// the status is unknown.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}
