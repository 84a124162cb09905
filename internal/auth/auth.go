// Package auth provides an optional bearer-token provider for the HTTP
// client, wired as the httpclient.TokenFunc that injects
// "Authorization: Bearer <token>" into every request C1 issues.
//
// Grounded on the teacher's internal/downloaders/google-drive/auth.go
// oauth2 usage, repurposed from Google Drive's interactive user-consent
// flow (AuthCodeURL + a scanned authorization code) to the unattended
// client-credentials flow appropriate for machine-to-machine CDN auth —
// there is no terminal prompt here, only a single token fetch, cached and
// refreshed by the oauth2 package's TokenSource.
package auth

import (
	"context"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
	"github.com/tanq16/danzo-hls/internal/httpclient"
)

// ClientCredentials wraps an oauth2 TokenSource built from the client
// credentials grant, exposed as an httpclient.TokenFunc.
type ClientCredentials struct {
	cfg clientcredentials.Config
}

// NewClientCredentials builds a bearer-token provider from the OAuth2
// client-credentials flow (--oauth-token-url/--oauth-client-id/
// --oauth-client-secret).
func NewClientCredentials(tokenURL, clientID, clientSecret string, scopes []string) *ClientCredentials {
	return &ClientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
	}
}

// TokenFunc adapts the provider to httpclient.TokenFunc: it fetches a token
// once and the oauth2 TokenSource transparently refreshes it on expiry.
func (c *ClientCredentials) TokenFunc() httpclient.TokenFunc {
	source := c.cfg.TokenSource(context.Background())
	return func(ctx context.Context) (string, error) {
		tok, err := source.Token()
		if err != nil {
			return "", danzoerr.New(danzoerr.Network, "fetching OAuth2 token", err)
		}
		return tok.AccessToken, nil
	}
}
