/*
Package jwks fetches and caches the JSON Web Key Set published by an
authorization server.

A Cache holds one immutable *KeySet at a time. Readers take the current
snapshot without locking; a refresh builds a complete new KeySet and swaps it
in with a single atomic store, so a validation never observes a partially
updated set. A failed refresh leaves the previous snapshot in place.

# Basic Usage

	jwksURL, _ := url.Parse("https://auth.example.com/oauth2/jwks")

	cache, err := jwks.New(
	    jwks.WithURL(jwksURL),
	    jwks.WithFreshness(time.Hour),
	)
	if err != nil {
	    log.Fatal(err)
	}

	set, err := cache.GetKeySet(ctx, false)
	if err != nil {
	    // *jwks.FetchError: network failure, non-2xx status or malformed JSON.
	}

	key, ok := jwks.FindByKid(set, "key-1")

# Freshness

GetKeySet serves the cached set while it is younger than the freshness
duration (default one hour). Once it is older, the next caller fetches a new
document. While one caller is refreshing an existing set, other callers keep
getting the old snapshot instead of starting another fetch. Fetches are
bounded by a timeout (default 10 seconds) and never hold a lock.
*/
package jwks
