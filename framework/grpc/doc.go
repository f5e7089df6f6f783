// Package grpcjwt provides gRPC server interceptors that authenticate calls
// with core.Core.
//
// Tokens are read from the "authorization" metadata field as
// "Bearer <token>". Verified claims are stored in the call context and can
// be read back with GetClaims or RequireClaims.
//
//	cache, _ := jwks.New(jwks.WithURL(jwksURL))
//	v, _ := validator.New(
//	    validator.WithKeySetProvider(cache),
//	    validator.WithIssuer("https://auth.example.com"),
//	    validator.WithAudience("orders-grpc"),
//	)
//	c, _ := core.New(core.WithValidator(v))
//
//	interceptor, err := grpcjwt.New(c,
//	    grpcjwt.WithExclusionMethods([]string{"/grpc.health.v1.Health/Check"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// Rejected calls fail with codes.Unauthenticated; errors that are not about
// the token map to codes.Internal.
package grpcjwt
