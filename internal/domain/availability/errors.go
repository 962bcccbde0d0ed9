package availability

import "errors"

// Sentinel kinds for availability errors.
var (
	ErrInvalidRange        = errors.New("date range end is before its start")
	ErrInvalidDuration     = errors.New("interview duration must be positive")
	ErrCalendarUnavailable = errors.New("calendar unavailable")
)
