package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoRefreshToken is returned by the refresh path when the store holds no
// refresh token; the original authorization failure is surfaced instead.
var ErrNoRefreshToken = errors.New("api: no refresh token stored")

// ErrPurchaserNameRequired rejects a purchase before any network call when
// the purchaser name is blank.
var ErrPurchaserNameRequired = errors.New("api: purchaser name is required")

// Error is a non-2xx response from the backend.
type Error struct {
	// StatusCode is the HTTP status of the failed call.
	StatusCode int
	// Message is the server-provided message field, verbatim.
	Message string
	// RequiresPasscode marks a 401 that is a passcode gate on a public
	// resource rather than an expired session.
	RequiresPasscode bool
	// Name carries the resource name a gated response still discloses.
	Name string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

// newAPIError builds an Error from a response body, extracting the loosely
// typed fields the backend includes alongside failures.
func newAPIError(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}
	if len(body) == 0 {
		return apiErr
	}
	apiErr.Message = gjson.GetBytes(body, "message").String()
	apiErr.RequiresPasscode = gjson.GetBytes(body, "requiresPasscode").Bool()
	apiErr.Name = gjson.GetBytes(body, "name").String()
	if apiErr.Message == "" && !apiErr.RequiresPasscode {
		if trimmed := strings.TrimSpace(string(body)); !strings.HasPrefix(trimmed, "{") {
			apiErr.Message = trimmed
		}
	}
	return apiErr
}

// IsAuthFailure reports whether err is a 401 authorization failure.
func IsAuthFailure(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// UserMessage maps an error to the text a screen should display. Validation
// failures surface the server message verbatim; server failures and network
// failures collapse to generic text. Screens never show a raw error chain.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrPurchaserNameRequired):
		return "Please enter a name before marking this purchased."
	case errors.Is(err, ErrNoRefreshToken):
		return "Your session has expired. Please sign in again."
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			if apiErr.Message != "" {
				return apiErr.Message
			}
			return "Your session has expired. Please sign in again."
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return "Something went wrong on our side. Please try again."
		case apiErr.Message != "":
			return apiErr.Message
		default:
			return fmt.Sprintf("Request failed (HTTP %d).", apiErr.StatusCode)
		}
	}
	return "Network error. Check your connection and try again."
}
