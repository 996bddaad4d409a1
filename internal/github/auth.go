// Package github provides GitHub App installation authentication for
// cloning private catalog repositories. Public catalogs need none of this
// and clone anonymously.
package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
)

// AppAuth mints installation access tokens for git-over-HTTPS operations.
type AppAuth struct {
	transport *ghinstallation.Transport
}

// NewAppAuth creates a new GitHub App authenticator.
func NewAppAuth(appID int64, privateKey []byte, installationID int64) (*AppAuth, error) {
	transport, err := ghinstallation.New(
		http.DefaultTransport,
		appID,
		installationID,
		privateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}

	return &AppAuth{transport: transport}, nil
}

// Token returns a valid installation access token. Expired tokens are
// refreshed automatically by ghinstallation.
func (a *AppAuth) Token(ctx context.Context) (string, error) {
	token, err := a.transport.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get installation token: %w", err)
	}
	return token, nil
}
