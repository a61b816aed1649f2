package repository

import "errors"

// Sentinel errors shared by all store implementations so the application layer
// can branch without knowing the backend.
var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert or update violates a uniqueness
	// constraint (normalized email).
	ErrDuplicate = errors.New("duplicate")
)
