// Package api centralizes outbound call construction for the Family Helper
// backend and one class of recovery: an expired access token. Every call
// attaches the stored bearer credential when one is present; a 401 triggers a
// single coalesced refresh followed by exactly one retry of the original call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/familyhelper-app/console/internal/auth"
	"github.com/familyhelper-app/console/internal/config"
	"github.com/familyhelper-app/console/internal/logging"
)

// RefreshSource mints a new token pair from a refresh token. The identity
// provider client implements it.
type RefreshSource interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenData, error)
}

// Client wraps HTTP calls to the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      auth.Store
	refresher  RefreshSource
	pageSize   int
	// debug is read on request goroutines and flipped by config hot-reload.
	debug atomic.Bool

	// refreshGroup coalesces concurrent refresh attempts: N calls failing
	// with 401 at once produce a single token-endpoint request.
	refreshGroup singleflight.Group
}

// NewClient creates an authenticated API client backed by the given
// credential store and refresh source.
func NewClient(cfg *config.Config, store auth.Store, refresher RefreshSource) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		store:     store,
		refresher: refresher,
		pageSize:  cfg.PageSize,
	}
	c.debug.Store(cfg.Debug)
	return c
}

// SetDebug toggles request-body logging, applied on config hot-reload.
func (c *Client) SetDebug(debug bool) {
	c.debug.Store(debug)
}

// PageSize returns the page size list screens should request.
func (c *Client) PageSize() int {
	return c.pageSize
}

// SignOut deletes the stored credential pair.
func (c *Client) SignOut(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// HasSession reports whether an access token is currently stored.
func (c *Client) HasSession(ctx context.Context) bool {
	creds, err := c.store.Load(ctx)
	return err == nil && creds.AccessToken != ""
}

// do performs one API call with bearer attachment and the single
// refresh-and-retry recovery. The body, when non-nil, is JSON encoded once so
// the retry can replay it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: marshal request body: %w", err)
		}
	}

	requestID := logging.GenerateRequestID()
	ctx = logging.WithRequestID(ctx, requestID)
	entry := log.WithField("request_id", requestID)

	creds, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	data, statusCode, err := c.issue(ctx, method, path, query, payload, creds.AccessToken)
	if err != nil {
		entry.WithError(err).Debugf("%s %s failed", method, path)
		return nil, err
	}
	entry.Debugf("%s %s -> %d", method, path, statusCode)
	if c.debug.Load() && len(payload) > 0 {
		entry.Debugf("request body: %s", logging.RedactBody(payload))
	}

	if statusCode < http.StatusBadRequest {
		return data, nil
	}

	apiErr := newAPIError(statusCode, data)
	if statusCode != http.StatusUnauthorized || apiErr.RequiresPasscode {
		// Passcode gates on public resources are 401s too, but they are a
		// domain state, not an expired session.
		return nil, apiErr
	}

	newToken, errRefresh := c.refreshAccessToken(ctx)
	if errRefresh != nil {
		if errors.Is(errRefresh, ErrNoRefreshToken) {
			// Nothing to recover with: the original failure stands. No
			// navigation happens here; the session state change is enough.
			return nil, apiErr
		}
		return nil, errRefresh
	}

	// Exactly one retry. Whatever it returns is final.
	data, statusCode, err = c.issue(ctx, method, path, query, payload, newToken)
	if err != nil {
		return nil, err
	}
	entry.Debugf("%s %s retry -> %d", method, path, statusCode)
	if statusCode >= http.StatusBadRequest {
		return nil, newAPIError(statusCode, data)
	}
	return data, nil
}

// issue performs a single HTTP round trip and drains the response.
func (c *Client) issue(ctx context.Context, method, path string, query url.Values, payload []byte, accessToken string) ([]byte, int, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("api: create request: %w", err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("api: read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

// refreshAccessToken performs the one-shot credential refresh. Concurrent
// callers share a single attempt through the singleflight group.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		creds, errLoad := c.store.Load(ctx)
		if errLoad != nil {
			return "", errLoad
		}
		if creds.RefreshToken == "" {
			// Clear the access token; the caller surfaces the original 401.
			if errSave := c.store.Save(ctx, auth.Credentials{}); errSave != nil {
				return "", errSave
			}
			return "", ErrNoRefreshToken
		}

		tokens, errRefresh := c.refresher.RefreshTokens(ctx, creds.RefreshToken)
		if errRefresh != nil {
			// Terminal refresh failure deletes both tokens.
			if errClear := c.store.Clear(ctx); errClear != nil {
				log.WithError(errClear).Warn("api: failed to clear credentials after refresh failure")
			}
			return "", errRefresh
		}

		next := auth.Credentials{
			AccessToken:  tokens.AccessToken,
			RefreshToken: creds.RefreshToken,
		}
		if tokens.RefreshToken != "" {
			next.RefreshToken = tokens.RefreshToken
		}
		if errSave := c.store.Save(ctx, next); errSave != nil {
			return "", errSave
		}
		log.Debug("api: access token refreshed")
		return next.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// get is a convenience wrapper for JSON GET calls.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

// post sends a JSON body and decodes the response when out is non-nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeJSON(data, out)
}

// put sends a JSON body via PUT, discarding the response payload.
func (c *Client) put(ctx context.Context, path string, body any) error {
	_, err := c.do(ctx, http.MethodPut, path, nil, body)
	return err
}

func decodeJSON(data []byte, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}
