package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// exchangeRequest is the payload for the backend credential exchange.
type exchangeRequest struct {
	ProviderToken string `json:"providerToken"`
	ID            string `json:"id"`
	Email         string `json:"email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// exchangeResponse carries the application token pair minted by the backend.
type exchangeResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ExchangeProviderToken converts a verified identity-provider token plus
// identity fields into the application access/refresh pair via
// POST /auth/exchange. A session becomes valid only after this succeeds.
func ExchangeProviderToken(ctx context.Context, apiBaseURL, providerToken string, identity *Identity) (Credentials, error) {
	if identity == nil {
		return Credentials{}, fmt.Errorf("auth exchange: identity is required")
	}

	payload, err := json.Marshal(exchangeRequest{
		ProviderToken: providerToken,
		ID:            identity.ID,
		Email:         identity.Email,
		GivenName:     identity.GivenName,
		FamilyName:    identity.FamilyName,
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("auth exchange: marshal request: %w", err)
	}

	endpoint := strings.TrimRight(apiBaseURL, "/") + "/auth/exchange"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Credentials{}, fmt.Errorf("auth exchange: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("auth exchange: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credentials{}, fmt.Errorf("auth exchange: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Credentials{}, fmt.Errorf("auth exchange: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result exchangeResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return Credentials{}, fmt.Errorf("auth exchange: parse response: %w", err)
	}
	if result.AccessToken == "" {
		return Credentials{}, fmt.Errorf("auth exchange: no accessToken in response")
	}
	return Credentials{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}
