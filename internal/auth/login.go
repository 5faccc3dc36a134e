package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// CallbackResult carries the authorization response captured by the deep-link
// bridge's /auth/callback route.
type CallbackResult struct {
	// Code is the authorization code received from the identity provider.
	Code string
	// State is the state parameter used to prevent CSRF attacks.
	State string
	// Error contains any error message if the flow failed.
	Error string
}

// LoginFlow drives a single browser sign-in: authorization-code grant with
// PKCE against the identity provider, followed by the backend credential
// exchange. One flow instance serves one attempt.
type LoginFlow struct {
	provider   *IdentityProvider
	store      Store
	apiBaseURL string

	oauthCfg *oauth2.Config
	state    string
	verifier string
}

// NewLoginFlow prepares a login attempt whose callback lands on redirectURI.
func NewLoginFlow(provider *IdentityProvider, store Store, apiBaseURL, redirectURI string) *LoginFlow {
	return &LoginFlow{
		provider:   provider,
		store:      store,
		apiBaseURL: apiBaseURL,
		oauthCfg:   provider.OAuthConfig(redirectURI),
		state:      uuid.NewString(),
		verifier:   oauth2.GenerateVerifier(),
	}
}

// AuthURL returns the provider URL to open in the user's browser.
func (f *LoginFlow) AuthURL() string {
	return f.oauthCfg.AuthCodeURL(f.state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(f.verifier),
	)
}

// Complete consumes the captured callback, exchanges the authorization code
// with the provider, converts the provider token into the application pair
// via the backend exchange, and persists the result.
func (f *LoginFlow) Complete(ctx context.Context, result CallbackResult) (Credentials, error) {
	if result.Error != "" {
		return Credentials{}, fmt.Errorf("login: provider returned error: %s", result.Error)
	}
	if result.State != f.state {
		return Credentials{}, fmt.Errorf("login: state mismatch")
	}
	if result.Code == "" {
		return Credentials{}, fmt.Errorf("login: missing authorization code")
	}

	token, err := f.oauthCfg.Exchange(ctx, result.Code, oauth2.VerifierOption(f.verifier))
	if err != nil {
		return Credentials{}, fmt.Errorf("login: code exchange failed: %w", err)
	}

	identity, err := f.provider.UserInfo(ctx, token.AccessToken)
	if err != nil {
		return Credentials{}, fmt.Errorf("login: %w", err)
	}

	creds, err := ExchangeProviderToken(ctx, f.apiBaseURL, token.AccessToken, identity)
	if err != nil {
		return Credentials{}, err
	}

	if err = f.store.Save(ctx, creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// State returns the CSRF state for callback matching.
func (f *LoginFlow) State() string {
	return f.state
}
