package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/familyhelper-app/console/internal/config"
)

// TokenData represents the credentials returned by the identity provider's
// token endpoint.
type TokenData struct {
	AccessToken string `json:"access_token"`
	// RefreshToken is issued only when the provider rotates it.
	RefreshToken string `json:"refresh_token,omitempty"`
	// IDToken carries the signed identity claims.
	IDToken string `json:"id_token,omitempty"`
	// TokenType indicates the type of token, typically "Bearer".
	TokenType string `json:"token_type"`
	// ExpiresIn is the time in seconds until the access token expires.
	ExpiresIn int `json:"expires_in"`
}

// Identity holds the user fields forwarded to the backend exchange.
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// IdentityProvider talks to the external OAuth2 identity service.
type IdentityProvider struct {
	domain     string
	clientID   string
	scopes     []string
	httpClient *http.Client
}

// NewIdentityProvider creates a provider client from the console configuration.
func NewIdentityProvider(cfg *config.Config) *IdentityProvider {
	return &IdentityProvider{
		domain:     strings.TrimSuffix(strings.TrimSpace(cfg.AuthDomain), "/"),
		clientID:   cfg.AuthClientID,
		scopes:     cfg.AuthScopes,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// TokenEndpoint returns the provider's OAuth2 token endpoint URL.
func (p *IdentityProvider) TokenEndpoint() string {
	return fmt.Sprintf("https://%s/oauth/token", p.domain)
}

// OAuthConfig builds the x/oauth2 configuration for the authorization-code
// flow with the given local redirect URI.
func (p *IdentityProvider) OAuthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: p.clientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("https://%s/authorize", p.domain),
			TokenURL: p.TokenEndpoint(),
		},
		RedirectURL: redirectURI,
		Scopes:      p.scopes,
	}
}

// RefreshTokens exchanges a refresh token for a new access token using the
// standard refresh-token grant with form-encoded credentials.
func (p *IdentityProvider) RefreshTokens(ctx context.Context, refreshToken string) (*TokenData, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", p.clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorData map[string]interface{}
		if err = json.Unmarshal(body, &errorData); err == nil {
			return nil, fmt.Errorf("token refresh failed: %v - %v", errorData["error"], errorData["error_description"])
		}
		return nil, fmt.Errorf("token refresh failed: %s", string(body))
	}

	var tokenData TokenData
	if err = json.Unmarshal(body, &tokenData); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return &tokenData, nil
}

// UserInfo fetches the identity claims for a provider access token.
func (p *IdentityProvider) UserInfo(ctx context.Context, accessToken string) (*Identity, error) {
	endpoint := fmt.Sprintf("https://%s/userinfo", p.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var claims struct {
		Sub        string `json:"sub"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err = json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}
	return &Identity{
		ID:         claims.Sub,
		Email:      claims.Email,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
	}, nil
}
