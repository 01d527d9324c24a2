package app

import "errors"

// Shared failure taxonomy. Services return these (possibly wrapped) and the
// transport layer maps them to response codes with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("operation not permitted")
	ErrConflict           = errors.New("conflicting resource already exists")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrIngestionFailed    = errors.New("document ingestion failed")
	ErrBackendUnavailable = errors.New("generation backend unavailable")
)

// Actor is the resolved caller identity consumed by the services.
type Actor struct {
	ID       uint
	Username string
	IsAdmin  bool
	IsActive bool
}
