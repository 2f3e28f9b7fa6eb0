package service

import "errors"

// Sentinel errors for rejected preconditions. Handlers map these onto HTTP
// statuses with errors.Is; nothing in the service layer panics or retries.
var (
	ErrNotFound          = errors.New("record not found")
	ErrForbidden         = errors.New("insufficient role for this action")
	ErrStaleBox          = errors.New("box was modified by someone else, reload and retry")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrReasonRequired    = errors.New("a reason is required for this transition")
	ErrChecklistBlocked  = errors.New("checklist item is blocked by an incomplete dependency")
	ErrNotToggleable     = errors.New("checklist item is completed by uploading a document, not by toggling")
	ErrHasDependents     = errors.New("record still has dependent data")
)
