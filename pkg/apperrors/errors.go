package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoMaterial         = errors.New("no materials found for course")
	ErrModelUnavailable   = errors.New("generative model unavailable")
	ErrMalformedResponse  = errors.New("malformed model response")
	ErrTooShort           = errors.New("text too short")
	ErrStoreFailure       = errors.New("store failure")
)

// ValidationError reports a client-supplied field that failed a schema rule.
// Message is user-facing and returned verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError returns the ValidationError in err's chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// TooShortError is returned when input text is below the minimum length.
// It matches ErrTooShort with errors.Is.
type TooShortError struct {
	MinChars int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("text too short: at least %d characters required", e.MinChars)
}

// Is reports whether target is ErrTooShort.
func (e *TooShortError) Is(target error) bool {
	return target == ErrTooShort
}
