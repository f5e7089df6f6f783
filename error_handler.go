package jwksguard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/auth0/go-jwks-guard/core"
	"github.com/auth0/go-jwks-guard/validator"
)

var (
	// ErrJWTMissing is returned when the request carries no token.
	ErrJWTMissing = core.ErrJWTMissing

	// ErrJWTInvalid matches every token rejection.
	ErrJWTInvalid = validator.ErrJWTInvalid

	// ErrTokenExtraction wraps errors returned by a TokenExtractor.
	ErrTokenExtraction = errors.New("error extracting token")
)

// ErrorBody is the JSON body of a rejected request.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is called when a request is rejected. err can be checked with
// errors.Is against ErrJWTMissing, ErrTokenExtraction and ErrJWTInvalid, and
// with errors.As against *validator.ValidationError.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse maps err to the status code and body written by
// DefaultErrorHandler. Framework adapters use it to answer the same way.
//
//   - ErrJWTMissing: 401 "Authorization header required"
//   - ErrTokenExtraction: 401 "Invalid Authorization header format"
//   - ErrJWTInvalid: 401 "Invalid token" with the rejection reason
//   - anything else: 500
func ErrorResponse(err error) (int, ErrorBody) {
	var validationErr *validator.ValidationError

	switch {
	case errors.Is(err, ErrJWTMissing):
		return http.StatusUnauthorized, ErrorBody{Error: "Authorization header required"}
	case errors.Is(err, ErrTokenExtraction):
		return http.StatusUnauthorized, ErrorBody{Error: "Invalid Authorization header format"}
	case errors.As(err, &validationErr):
		return http.StatusUnauthorized, ErrorBody{Error: "Invalid token", Details: validationErr.Message}
	case errors.Is(err, ErrJWTInvalid):
		return http.StatusUnauthorized, ErrorBody{Error: "Invalid token"}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "Something went wrong while checking the token"}
	}
}

// DefaultErrorHandler writes the ErrorResponse for err as JSON. Bearer
// failures carry a WWW-Authenticate challenge.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status, body := ErrorResponse(err)

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", wwwAuthenticate(err))
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// wwwAuthenticate builds the RFC 6750 challenge for err.
func wwwAuthenticate(err error) string {
	var validationErr *validator.ValidationError
	switch {
	case errors.Is(err, ErrJWTMissing):
		return "Bearer"
	case errors.Is(err, ErrTokenExtraction):
		return `Bearer error="invalid_request", error_description="Invalid Authorization header format"`
	case errors.As(err, &validationErr) && validationErr.Code == validator.ReasonMalformedToken:
		return `Bearer error="invalid_request", error_description="` + validationErr.Message + `"`
	case errors.As(err, &validationErr):
		return `Bearer error="invalid_token", error_description="` + validationErr.Message + `"`
	default:
		return `Bearer error="invalid_token"`
	}
}
