/*
Package oidc locates an issuer's JWKS through OpenID Connect Discovery.

Providers publish a discovery document at

	https://issuer.example.com/.well-known/openid-configuration

whose jwks_uri names the key set used to sign their tokens. The document is
fetched with github.com/coreos/go-oidc, which also checks that the issuer it
declares is the one that was asked for.

	jwksURL, err := oidc.DiscoverJWKSURL(ctx, &http.Client{Timeout: 10 * time.Second}, "https://auth.example.com")
	if err != nil {
	    // network failure, non-200 status, invalid JSON, issuer mismatch
	    // or missing jwks_uri
	}
*/
package oidc
