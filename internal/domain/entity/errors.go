package entity

import (
	"errors"
	"fmt"
)

// Error taxonomy for the guide pipeline. Generation-side failures are fatal
// to the current request; weather/routing/preference-extraction failures are
// recovered locally and never surface through these sentinels.
var (
	// ErrAuth means the credential exchange with an external provider failed.
	ErrAuth = errors.New("authentication failed")

	// ErrTransport means a network or timeout failure talking to a provider.
	ErrTransport = errors.New("transport failure")

	// ErrProvider means the provider answered with a declared failure code.
	ErrProvider = errors.New("provider error")

	// ErrGeneration means the text generation call itself failed.
	ErrGeneration = errors.New("generation failed")

	// ErrNotFound means a record lookup matched nothing.
	ErrNotFound = errors.New("record not found")
)

// ValidationError reports malformed user input for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
