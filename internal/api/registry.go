package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// RegistryKind selects which public registry family a share token addresses.
type RegistryKind string

const (
	GiftRegistry RegistryKind = "gift-registry"
	ItemRegistry RegistryKind = "item-registry"
)

func registryPath(kind RegistryKind, token string) string {
	return "/public/" + string(kind) + "/" + url.PathEscape(token)
}

// FetchRegistry loads a shared registry by its token. A passcode-protected
// registry returns a gated result with NeedsPasscode set and only the name
// disclosed; that is a normal outcome, not an error.
func (c *Client) FetchRegistry(ctx context.Context, kind RegistryKind, token string) (*Registry, error) {
	var out Registry
	err := c.get(ctx, registryPath(kind, token), nil, &out)
	if err != nil {
		if gated := gatedRegistry(err); gated != nil {
			return gated, nil
		}
		return nil, err
	}
	return &out, nil
}

// UnlockRegistry submits a passcode for a gated registry. A wrong passcode
// returns the gated state again with Message set; the caller stays on the
// passcode prompt.
func (c *Client) UnlockRegistry(ctx context.Context, kind RegistryKind, token, passcode string) (*Registry, error) {
	body := map[string]string{"passcode": passcode}
	var out Registry
	err := c.post(ctx, registryPath(kind, token), body, &out)
	if err != nil {
		if gated := gatedRegistry(err); gated != nil {
			return gated, nil
		}
		return nil, err
	}
	return &out, nil
}

// PurchaseItem marks a gift registry item purchased on behalf of a named
// purchaser. A blank name is rejected before any network call.
func (c *Client) PurchaseItem(ctx context.Context, token, itemID, purchaserName string) error {
	if strings.TrimSpace(purchaserName) == "" {
		return ErrPurchaserNameRequired
	}
	body := map[string]string{"purchaserName": purchaserName}
	path := registryPath(GiftRegistry, token) + "/items/" + url.PathEscape(itemID) + "/purchase"
	return c.post(ctx, path, body, nil)
}

// gatedRegistry converts a passcode-gate 401 into the gated view state. Any
// other error returns nil.
func gatedRegistry(err error) *Registry {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	if apiErr.StatusCode != http.StatusUnauthorized || !apiErr.RequiresPasscode {
		return nil
	}
	return &Registry{
		Name:          apiErr.Name,
		NeedsPasscode: true,
		Message:       apiErr.Message,
	}
}
