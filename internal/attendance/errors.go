package attendance

import "errors"

// Typed outcomes crossing the HTTP boundary. ErrAlreadySubmitted is normal
// flow, not a failure: callers translate it into a read-only view.
var (
	ErrAlreadySubmitted = errors.New("attendance already submitted for today")
	ErrNotInitialized   = errors.New("attendance session not initialized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidStatus    = errors.New("invalid attendance status")
)
