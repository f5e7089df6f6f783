package grpcjwt

import (
	"context"

	"google.golang.org/grpc/metadata"

	jwksguard "github.com/auth0/go-jwks-guard"
)

// TokenExtractor extracts a token from the incoming gRPC context. As with
// HTTP extractors, a missing token is an empty string, not an error.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor extracts the token from the "authorization"
// metadata field, which must hold "Bearer <token>".
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return "", nil
	}

	return jwksguard.ParseAuthorizationHeader(values[0])
}

// MetadataFieldTokenExtractor extracts a raw token from the given metadata
// field.
func MetadataFieldTokenExtractor(field string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return "", nil
		}

		values := md.Get(field)
		if len(values) == 0 {
			return "", nil
		}
		return values[0], nil
	}
}

// MultiTokenExtractor runs extractors in order and returns the first
// non-empty token.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		for _, ex := range extractors {
			token, err := ex(ctx)
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
