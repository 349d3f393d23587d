// Package auth builds the browser-side half of the Google OAuth flow.
// The code-for-token exchange itself goes through the backend
// (client.ExchangeOAuthCode); this package only produces the authorize URL
// the user visits and the CSRF state that ties the two halves together.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleConfig holds what we need to send a user to Google's consent page.
type GoogleConfig struct {
	ClientID    string
	RedirectURI string
}

// NewState generates a CSRF state value: 16 random bytes, base64url
// without padding.
func NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthorizeURL builds the Google authorization URL for the given state.
// access_type=offline and prompt=consent ask Google for a refresh-capable
// grant every time, matching what the backend expects to exchange.
func AuthorizeURL(cfg GoogleConfig, state string) (string, error) {
	if cfg.ClientID == "" {
		return "", errors.New("google client id is not configured")
	}
	if cfg.RedirectURI == "" {
		return "", errors.New("google redirect uri is not configured")
	}

	oauthCfg := oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Endpoint:    google.Endpoint,
		Scopes:      []string{"openid", "email", "profile"},
	}

	return oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// ValidateState compares the state echoed by the callback against the one
// stored when the flow began.
func ValidateState(stored, received string) error {
	if stored == "" {
		return errors.New("no oauth flow in progress")
	}
	if stored != received {
		return errors.New("oauth state mismatch")
	}
	return nil
}
