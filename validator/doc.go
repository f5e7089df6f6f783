/*
Package validator verifies bearer tokens against keys published in a JWKS.

Validate never returns an error value: every outcome is a Result that is
either valid (carrying the verified Claims) or invalid with a Reason. Each
failure has its own Reason so callers and metrics can tell them apart, even
when the HTTP layer only answers with a generic 401.

# Basic Usage

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

	result := v.Validate(ctx, token)
	if !result.Valid() {
	    log.Printf("rejected: %s", result.Reason)
	    return
	}
	fmt.Println(result.Claims.Subject)

# Validation Steps

 1. The token must have exactly three base64url segments (token_malformed).
 2. The header is decoded without verification; alg and kid only select a key.
 3. alg must be in the allow-list (invalid_algorithm). This happens before
    any key is touched, which rules out "none" and algorithm confusion.
 4. The key set is taken from the KeySetProvider (jwks_unavailable).
 5. The key is selected by kid (jwks_key_not_found).
 6. The JWK is converted by the strategy registered for its kty, which must
    list the header's alg (unsupported_key).
 7. The signature over the received bytes is verified with the header's alg
    (invalid_signature).
 8. exp, nbf, iss and aud are checked (token_expired, token_not_yet_valid,
    invalid_issuer, invalid_audience). iat is recorded, not enforced.

# Security Notes

Default algorithm: a header without alg is treated as the configured default
algorithm (RS256 unless WithDefaultAlgorithm says otherwise). The resulting
algorithm is always checked against the allow-list.

Kid fallback: WithKidFallback(true) makes the validator use the first key
of the set when the token has no kid or its kid matches nothing. This exists
for single-key deployments that do not publish kids. It weakens kid pinning:
in a multi-key set a token can be checked against a key it was never meant
for. It is off by default.

Stale key set: when the key set cannot be refreshed and the provider still
holds a previously fetched set (see jwks.Cache.Current), that set is used
and a warning is logged. Disable with WithStaleKeySet(false).

# Supported Algorithms

RSA: RS256, RS384, RS512, PS256, PS384, PS512 (kty RSA)
ECDSA: ES256, ES384, ES512 (kty EC)
EdDSA: EdDSA (kty OKP)
HMAC: HS256, HS384, HS512 (kty oct)

Only RS256 is allowed unless WithAllowedAlgorithms says otherwise.
*/
package validator
