package providers

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

var _ AuthProvider = &FirebaseAuthProvider{}

// FirebaseAuthProvider verifies Firebase ID tokens for the room API.
// The UID from a verified token becomes the participant identity used
// for room ownership.
type FirebaseAuthProvider struct {
	client *auth.Client
}

func NewFirebaseAuthProvider(ctx context.Context, projectID string, apiKey string) (*FirebaseAuthProvider, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %v", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %v", err)
	}

	return &FirebaseAuthProvider{
		client: client,
	}, nil
}

func (p *FirebaseAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %v", err)
	}

	return &TokenClaims{
		UID: token.UID,
	}, nil
}
