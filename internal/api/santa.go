package api

import (
	"context"
	"net/url"
)

func santaPath(token, suffix string) string {
	p := "/secret-santa/" + url.PathEscape(token)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// FetchSantaEvent loads the public summary of a Secret Santa event.
func (c *Client) FetchSantaEvent(ctx context.Context, token string) (*SantaEvent, error) {
	var out SantaEvent
	if err := c.get(ctx, santaPath(token, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySantaCredentials checks a participant's email and passcode against an
// event. Credentials are validated per call and never stored server-side.
func (c *Client) VerifySantaCredentials(ctx context.Context, token string, creds SantaCredentials) error {
	return c.post(ctx, santaPath(token, "verify"), creds, nil)
}

// FetchSantaData loads the participant-scoped view of an event: the drawn
// name and that person's registry items.
func (c *Client) FetchSantaData(ctx context.Context, token string, creds SantaCredentials) (*SantaData, error) {
	var out SantaData
	if err := c.post(ctx, santaPath(token, "data"), creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PurchaseSantaItem marks an item on the drawn participant's registry
// purchased. The acting participant's credentials authorize the call.
func (c *Client) PurchaseSantaItem(ctx context.Context, token, itemID string, creds SantaCredentials) error {
	body := struct {
		SantaCredentials
		ItemID string `json:"itemId"`
	}{SantaCredentials: creds, ItemID: itemID}
	return c.post(ctx, santaPath(token, "items/"+url.PathEscape(itemID)+"/purchase"), body, nil)
}
