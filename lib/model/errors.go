package model

import "errors"

var (
	// ErrInvalidArgument is returned for missing or malformed inputs (nil readings, nil options, empty paths).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange is returned when a value violates a domain range invariant.
	ErrOutOfRange = errors.New("value out of range")
	// ErrModelNotFound is returned when a persisted model cannot be located.
	ErrModelNotFound = errors.New("model not found")
	// ErrModelNotLoaded is returned when a statistical model is used before it was trained or loaded.
	ErrModelNotLoaded = errors.New("model not loaded")
)
