package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrUnknownInterviewer  = errors.New("unknown interviewer")
	ErrInactiveInterviewer = errors.New("interviewer is not active")
	ErrInvalidRecord       = errors.New("invalid interview record")
)
