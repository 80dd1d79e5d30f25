package submissions

import "errors"

var (
	// ErrNotFound indicates a submission was not found.
	ErrNotFound = errors.New("submission not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLookupFailed indicates the batched lookup could not be completed.
	ErrLookupFailed = errors.New("submission lookup failed")
)
