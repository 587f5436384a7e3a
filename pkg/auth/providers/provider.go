package providers

import "context"

// AuthProvider verifies the identity token presented by an API caller.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

// TokenClaims is the verified identity behind a request. The UID is
// recorded as the owning participant on rooms created through the API.
type TokenClaims struct {
	UID string `json:"uid"`
}
