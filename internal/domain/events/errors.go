package events

import "errors"

var (
	// ErrNotFound indicates an unknown event identifier.
	ErrNotFound = errors.New("unknown event")

	// ErrConflict indicates an attempt to register an identifier that
	// already exists.
	ErrConflict = errors.New("event already exists")
)
