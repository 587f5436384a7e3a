package middleware

import (
	"context"
	"net/http"
	"strings"

	authproviders "github.com/sandlotlabs/dugout/pkg/auth/providers"
	"github.com/sandlotlabs/dugout/pkg/log"
)

type contextKey string

// ParticipantContextKey holds the verified *providers.TokenClaims for
// the request.
const ParticipantContextKey contextKey = "participant"

// ParticipantFromContext returns the claims stored by the auth
// middleware, or nil when the request skipped it.
func ParticipantFromContext(ctx context.Context) *authproviders.TokenClaims {
	claims, _ := ctx.Value(ParticipantContextKey).(*authproviders.TokenClaims)
	return claims
}

// NewAuthMiddleware verifies the Authorization bearer token with the
// provider and stores the claims on the request context.
func NewAuthMiddleware(authProvider authproviders.AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			claims, err := authProvider.VerifyToken(r.Context(), token)
			if err != nil {
				log.Debug("Failed to verify token: %v", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ParticipantContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
