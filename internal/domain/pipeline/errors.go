package pipeline

import "errors"

// ErrInvalidRequest is returned before any stage runs when a request is
// missing required fields or carries values the pipeline cannot use.
var ErrInvalidRequest = errors.New("invalid scheduling request")
