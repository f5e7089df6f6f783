package jwksguard

import (
	"errors"
	"net/http"
	"strings"
)

// ErrMalformedAuthHeader is returned when the Authorization header is not
// of the form "Bearer <token>".
var ErrMalformedAuthHeader = errors.New("authorization header format must be Bearer {token}")

// TokenExtractor takes a request and returns the token it carries. An error
// is only returned when a token was offered but malformed; a missing token
// yields an empty string.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor extracts the token from the Authorization header.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	return ParseAuthorizationHeader(r.Header.Get("Authorization"))
}

// ParseAuthorizationHeader returns the bearer token of an Authorization
// header value. The scheme is case-insensitive.
func ParseAuthorizationHeader(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	parts := strings.Fields(value)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedAuthHeader
	}

	return parts[1], nil
}

// CookieTokenExtractor builds a TokenExtractor that reads the named cookie.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return cookie.Value, nil
	}
}

// ParameterTokenExtractor builds a TokenExtractor that reads a query
// parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor runs extractors in order and returns the first
// non-empty token. The first error is returned immediately.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
