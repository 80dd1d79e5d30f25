package catalog

import "errors"

var (
	ErrUnknownProductType = errors.New("unknown product type")
	ErrInvalidRegistry    = errors.New("invalid registry")
)
