package models

import "errors"

// Error taxonomy shared by the store, services and handlers. Callers wrap
// these with fmt.Errorf("...: %w", ...) and match with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
