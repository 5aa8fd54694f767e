package encoding

import "errors"

var (
	// ErrUnknownCategory is returned when a value (or a whole category) is
	// outside the fitted vocabulary.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrLoadEncoders wraps failures reading the encoder artifact.
	ErrLoadEncoders = errors.New("load encoders failed")
)
