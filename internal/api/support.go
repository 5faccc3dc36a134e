package api

import (
	"context"
	"net/url"
	"strconv"
)

// ListUsers fetches one page of the support user list. A blank search returns
// all users.
func (c *Client) ListUsers(ctx context.Context, search string, page int) (*UsersPage, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))

	var out UsersPage
	if err := c.get(ctx, "/support/users", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetSubscriptionEndDate updates a user's subscription end date. An empty
// date clears it.
func (c *Client) SetSubscriptionEndDate(ctx context.Context, userID, endDate string) error {
	body := map[string]string{"subscriptionEndDate": endDate}
	return c.put(ctx, "/support/users/"+url.PathEscape(userID)+"/subscription-end-date", body)
}

// SetSupportAccess toggles whether a user's account may be inspected by
// support tooling.
func (c *Client) SetSupportAccess(ctx context.Context, userID string, allowed bool) error {
	body := map[string]bool{"supportAccess": allowed}
	return c.put(ctx, "/support/users/"+url.PathEscape(userID)+"/support-access", body)
}

// SetLocked locks or unlocks a user account.
func (c *Client) SetLocked(ctx context.Context, userID string, locked bool) error {
	body := map[string]bool{"locked": locked}
	return c.put(ctx, "/support/users/"+url.PathEscape(userID)+"/lock", body)
}

// ListAuditLogs fetches one page of support audit entries, optionally
// filtered by action.
func (c *Client) ListAuditLogs(ctx context.Context, action string, page int) (*AuditLogsPage, error) {
	query := url.Values{}
	if action != "" {
		query.Set("action", action)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))

	var out AuditLogsPage
	if err := c.get(ctx, "/support/audit-logs", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
