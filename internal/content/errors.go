package content

import "errors"

var (
	// ErrInvalidInput indicates a record without its upsert key.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStorage indicates a binding that names no content table.
	ErrUnknownStorage = errors.New("unknown storage binding")

	// ErrStoreUnavailable indicates the store itself is down rather than a single write failing.
	ErrStoreUnavailable = errors.New("content store unavailable")
)
