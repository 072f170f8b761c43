// Package middleware contains HTTP middleware for the server.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"srcbook/internal/auth"
	"srcbook/internal/logger"
)

// identityKey is the context key for the resolved moderator name.
type identityKey struct{}

// NewContextWithIdentity returns a copy of ctx carrying the moderator identity.
func NewContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the moderator identity set by RequireIdentity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey{}).(string)
	return id, ok && id != ""
}

// RequireIdentity resolves the caller's credentials and rejects the request
// when they are missing or invalid. Rejections are 400, matching the rest of
// the API's client-error handling; an unreachable identity provider is 502.
func RequireIdentity(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.Resolve(r.Context(), r)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				logger.FromContext(r.Context(), loggerFrom(r)).Warn("identity lookup failed", "error", err)
				writeError(w, http.StatusBadGateway, "identity provider unavailable")
				return
			}

			ctx := NewContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
