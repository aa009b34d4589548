package domain

import "errors"

// Sentinel errors for the application. Services wrap these with context via
// fmt.Errorf("...: %w", ...); the transport layer maps them to HTTP statuses
// with errors.Is.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized access")

	// ErrConflict signals a lost uniqueness race at the storage layer. It is
	// resolved internally (re-read the winner) and never reaches a caller.
	ErrConflict = errors.New("resource already exists")
)
