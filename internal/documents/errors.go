package documents

import "errors"

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput is returned for records that cannot be stored.
	ErrInvalidInput = errors.New("invalid document input")
)
