package validator

import "errors"

// ErrJWTInvalid is matched by every *ValidationError.
var ErrJWTInvalid = errors.New("jwt invalid")

// ValidationError describes why a token was rejected.
type ValidationError struct {
	// Code is the machine-readable reason, e.g. token_expired.
	Code Reason

	// Message is the human-readable reason, e.g. "expired".
	Message string

	// Details contains the underlying error.
	Details error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with ErrJWTInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrJWTInvalid
}
