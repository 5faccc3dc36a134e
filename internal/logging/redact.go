package logging

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// sensitiveBodyFields lists JSON fields that must never reach the log files.
var sensitiveBodyFields = []string{
	"accessToken",
	"refreshToken",
	"token",
	"passcode",
	"password",
}

// RedactBody scrubs credential material from a JSON request or response body
// before it is written to the debug log. Non-JSON payloads are replaced
// wholesale rather than risk leaking an unparseable credential.
func RedactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !gjson.ValidBytes(body) {
		return "<non-json body redacted>"
	}
	out := body
	for _, field := range sensitiveBodyFields {
		if !gjson.GetBytes(out, field).Exists() {
			continue
		}
		redacted, err := sjson.SetBytes(out, field, "<redacted>")
		if err != nil {
			return "<body redacted>"
		}
		out = redacted
	}
	return string(out)
}
