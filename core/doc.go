/*
Package core provides the transport-agnostic part of bearer token
authentication.

The Core type turns an extracted token into verified claims without any
dependency on a transport protocol, so the same logic is shared by the
net/http middleware and the Gin, Echo and gRPC adapters:

	┌───────────────────────────────────────┐
	│  Transport adapters                   │
	│  (net/http, Gin, Echo, gRPC)          │
	└──────────────────┬────────────────────┘
	                   ▼
	┌───────────────────────────────────────┐
	│  Core                                 │
	│  • missing / optional credentials     │
	│  • logging                            │
	└──────────────────┬────────────────────┘
	                   ▼
	┌───────────────────────────────────────┐
	│  validator.Validator + jwks.Cache     │
	└───────────────────────────────────────┘

# Basic Usage

	c, err := core.New(core.WithValidator(v))
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := c.CheckToken(ctx, token)
	if err != nil {
	    var validationErr *validator.ValidationError
	    if errors.As(err, &validationErr) {
	        // validationErr.Code is e.g. validator.ReasonExpired
	    }
	}

# Context Helpers

Adapters store the verified claims in the request context:

	ctx = core.SetClaims(ctx, claims)

	claims, err := core.GetClaims[*validator.Claims](ctx)

	identity := core.IdentityFromClaims(claims)
*/
package core
