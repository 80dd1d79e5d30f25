package imports

import "errors"

var (
	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidWorkbook indicates the upload is not a readable xlsx workbook.
	ErrInvalidWorkbook = errors.New("invalid workbook")

	// ErrBatchNotFound indicates the batch id is unknown or expired.
	ErrBatchNotFound = errors.New("batch not found")
)
