package interceptors

import (
	"context"

	"dsadmin/auth"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const principalKey contextKey = "principal"

// AuthInterceptor resolves the caller's identity from the "authorization"
// metadata and stores the resulting Principal in the handler context.
// Methods listed in public bypass the check.
func AuthInterceptor(a *auth.Authenticator, public ...string) grpc.UnaryServerInterceptor {
	publicMethods := make(map[string]bool, len(public))
	for _, m := range public {
		publicMethods[m] = true
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		token, err := TokenFromMetadata(ctx)
		if err != nil {
			return nil, err
		}
		principal, err := a.RequireIdentity(ctx, token)
		if err != nil {
			return nil, err
		}
		return handler(context.WithValue(ctx, principalKey, principal), req)
	}
}

// TokenFromMetadata extracts the bearer token from incoming metadata.
func TokenFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", auth.ErrMissingToken
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", auth.ErrMissingToken
	}
	return auth.BearerToken(values[0])
}

// PrincipalFromContext returns the identity stored by AuthInterceptor.
func PrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*auth.Principal)
	return p, ok
}
