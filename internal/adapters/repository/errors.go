package repository

import "errors"

// Sentinel kinds for reference data errors.
var (
	ErrLoadReference = errors.New("load reference data failed")
	ErrMissingColumn = errors.New("missing column")
	ErrMalformedRow  = errors.New("malformed row")
)
