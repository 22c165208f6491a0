package services

import "errors"

// Service error taxonomy. Controllers map these onto HTTP statuses; every
// failure a caller can see is one of these kinds wrapped around the cause.
var (
	// ErrNotFound covers both a missing target and an ownership mismatch —
	// the two are deliberately indistinguishable so callers cannot probe
	// for other users' folders or files.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is an ownership mismatch in contexts where existence is
	// already implied.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is a sibling name collision on create or rename.
	ErrConflict = errors.New("name already exists in this location")

	// ErrQuotaExceeded rejects a create that would push storage_used past
	// the configured limit. Nothing is persisted.
	ErrQuotaExceeded = errors.New("storage limit exceeded")

	// ErrInternal is a transaction failure or an unexpected blob-store
	// error during single-file delete.
	ErrInternal = errors.New("internal error")
)
