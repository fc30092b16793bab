package content

import "errors"

var (
	// ErrNotFound is returned when no record carries the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrImport is returned when an imported document is not usable. Nothing is written.
	ErrImport = errors.New("invalid import document")
	// ErrValidation is returned when a submitted record misses a required field.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownCollection is returned for a collection name outside Names.
	ErrUnknownCollection = errors.New("unknown collection")
)
