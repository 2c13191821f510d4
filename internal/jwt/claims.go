package jwt

import (
	"context"
	"fmt"

	"github.com/jamestelfer/bearer-guard/internal/extension"
)

// ContextWithClaims returns a context carrying claims, replacing any claims of
// the same type. Mostly useful for testing handlers without the middleware.
func ContextWithClaims[T any](ctx context.Context, claims T) context.Context {
	return extension.With(ctx, claims)
}

// ClaimsFromContext returns the claims set by the middleware. The boolean is
// false when the request carried no Authorization header; handlers that need
// an authenticated caller must check it.
func ClaimsFromContext[T any](ctx context.Context) (T, bool) {
	return extension.Get[T](ctx)
}

// RequireClaimsFromContext returns the claims set by the middleware, and
// panics if they're not present. Only use this in handlers that can't be
// reached without a token.
func RequireClaimsFromContext[T any](ctx context.Context) T {
	claims, ok := ClaimsFromContext[T](ctx)
	if !ok {
		panic(fmt.Sprintf("%T claims not present in context, likely used outside of the JWT middleware", claims))
	}

	return claims
}
