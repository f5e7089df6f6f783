package jwks

import (
	"errors"
	"fmt"
)

// ErrNoKeys is returned when the JWKS document does not contain any key.
var ErrNoKeys = errors.New("key set contains no keys")

// Fetch operations reported by FetchError.
const (
	OpRequest = "request"
	OpStatus  = "status"
	OpDecode  = "decode"
)

// FetchError is returned by Cache.GetKeySet when the JWKS document could not
// be retrieved or parsed.
type FetchError struct {
	// Op is the stage that failed: OpRequest, OpStatus or OpDecode.
	Op string
	// URL is the JWKS URL that was requested.
	URL string
	// StatusCode is the HTTP status for OpStatus failures.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	if e.Op == OpStatus {
		return fmt.Sprintf("jwks fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("jwks fetch %s: %s: %v", e.URL, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
