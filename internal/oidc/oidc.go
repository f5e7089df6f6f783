package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

// ErrNoJWKSURI is returned when the discovery document has no jwks_uri.
var ErrNoJWKSURI = errors.New("discovery document has no jwks_uri")

// WellKnownEndpoints holds the discovery document fields used to locate keys.
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// GetWellKnownEndpoints fetches the issuer's discovery document with client.
// The document's issuer must equal issuer exactly.
func GetWellKnownEndpoints(ctx context.Context, client *http.Client, issuer string) (*WellKnownEndpoints, error) {
	if client != nil {
		ctx = gooidc.ClientContext(ctx, client)
	}

	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints for issuer %s: %w", issuer, err)
	}

	var endpoints WellKnownEndpoints
	if err := provider.Claims(&endpoints); err != nil {
		return nil, fmt.Errorf("could not decode well known endpoints: %w", err)
	}
	if endpoints.JWKSURI == "" {
		return nil, ErrNoJWKSURI
	}

	return &endpoints, nil
}

// DiscoverJWKSURL returns the JWKS URL advertised by issuer.
func DiscoverJWKSURL(ctx context.Context, client *http.Client, issuer string) (*url.URL, error) {
	endpoints, err := GetWellKnownEndpoints(ctx, client, issuer)
	if err != nil {
		return nil, err
	}

	jwksURL, err := url.Parse(endpoints.JWKSURI)
	if err != nil {
		return nil, fmt.Errorf("invalid jwks_uri %q: %w", endpoints.JWKSURI, err)
	}
	return jwksURL, nil
}
