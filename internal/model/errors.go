package model

import "errors"

// Common errors used across the application
var (
	// Party errors
	ErrPartyNotFound  = errors.New("party not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotHost        = errors.New("player is not the host")
	ErrNotInLobby     = errors.New("party is not in lobby state")
	ErrNoGameSelected = errors.New("no game selected")

	// Credential errors
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrCredentialExpired   = errors.New("credential expired")
	ErrWrongCredentialKind = errors.New("wrong credential kind")

	// Registry errors
	ErrGameNotFound = errors.New("game not found")
)

// ValidationError reports a malformed or out-of-range request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
