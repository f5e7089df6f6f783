package core

import (
	"errors"

	"github.com/auth0/go-jwks-guard/validator"
)

var (
	// ErrJWTMissing is returned when the request carries no token.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid matches every token rejection.
	ErrJWTInvalid = validator.ErrJWTInvalid

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")

	// ErrValidatorNotSet is returned by New without WithValidator.
	ErrValidatorNotSet = errors.New("validator is required but not set (use WithValidator option)")
)
