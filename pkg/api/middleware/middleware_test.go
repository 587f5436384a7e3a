package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	authproviders "github.com/sandlotlabs/dugout/pkg/auth/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectingProvider struct{}

func (p *rejectingProvider) VerifyToken(ctx context.Context, idToken string) (*authproviders.TokenClaims, error) {
	return nil, fmt.Errorf("bad token")
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("stores verified claims on the context", func(t *testing.T) {
		var gotClaims *authproviders.TokenClaims
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotClaims, _ = r.Context().Value(ParticipantContextKey).(*authproviders.TokenClaims)
			w.WriteHeader(http.StatusOK)
		})

		handler := NewAuthMiddleware(authproviders.NewNoopAuthProvider())(next)

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer player-7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, "player-7", gotClaims.UID)
	})

	t.Run("rejects tokens the provider refuses", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		handler := NewAuthMiddleware(&rejectingProvider{})(next)

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer whatever")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
