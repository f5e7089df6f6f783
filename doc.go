/*
Package jwksguard provides net/http middleware that authenticates requests
with bearer tokens signed by keys published in a remote JWKS document.

The middleware is the HTTP adapter around core.Core; key retrieval lives in
package jwks and token verification in package validator.

# Quick Start

	import (
	    "github.com/auth0/go-jwks-guard"
	    "github.com/auth0/go-jwks-guard/jwks"
	    "github.com/auth0/go-jwks-guard/validator"
	)

	func main() {
	    jwksURL, _ := url.Parse("https://auth.example.com/oauth2/jwks")
	    cache, err := jwks.New(jwks.WithURL(jwksURL))
	    if err != nil {
	        log.Fatal(err)
	    }

	    v, err := validator.New(
	        validator.WithKeySetProvider(cache),
	        validator.WithIssuer("https://auth.example.com"),
	        validator.WithAudience("resource-server"),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    guard, err := jwksguard.New(jwksguard.WithValidator(v))
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", guard.CheckJWT(apiHandler))
	    http.ListenAndServe(":8080", nil)
	}

# Accessing Claims

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    identity, err := jwksguard.GetIdentity(r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s!", identity.Username)
	}

GetClaims returns the full *validator.Claims.

# Configuration Options

Required:
  - WithValidator: a configured *validator.Validator

Optional:
  - WithCredentialsOptional: let requests without a token through
  - WithValidateOnOptions: validate OPTIONS requests (default true)
  - WithErrorHandler: custom rejection response
  - WithTokenExtractor: custom token extraction
  - WithExclusionURLs: URLs that skip validation
  - WithLogger: structured logging, see package logging

# Error Responses

DefaultErrorHandler answers every authentication failure with 401 and a
JSON body:

	{"error":"Authorization header required"}
	{"error":"Invalid Authorization header format"}
	{"error":"Invalid token","details":"expired"}

The details field carries the short rejection reason and never the token.
Anything else is answered with 500. Custom handlers can reuse the mapping
through ErrorResponse, or inspect the error directly:

	func myErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	    var validationErr *validator.ValidationError
	    if errors.As(err, &validationErr) && validationErr.Code == validator.ReasonExpired {
	        w.Header().Set("X-Token-Expired", "true")
	    }
	    jwksguard.DefaultErrorHandler(w, r, err)
	}
*/
package jwksguard
