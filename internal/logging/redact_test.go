package logging

import (
	"strings"
	"testing"
)

func TestRedactBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantContain string
		wantAbsent  string
	}{
		{
			"access token scrubbed",
			`{"accessToken":"eyJ-secret","user":"jane"}`,
			`"user":"jane"`,
			"eyJ-secret",
		},
		{
			"refresh token scrubbed",
			`{"refreshToken":"rt-secret"}`,
			"<redacted>",
			"rt-secret",
		},
		{
			"passcode scrubbed",
			`{"passcode":"1234","email":"kid@example.com"}`,
			`"email":"kid@example.com"`,
			`"1234"`,
		},
		{
			"plain fields untouched",
			`{"purchaserName":"Grandma"}`,
			`{"purchaserName":"Grandma"}`,
			"<redacted>",
		},
		{
			"non-json replaced entirely",
			"token=abc&passcode=1234",
			"<non-json body redacted>",
			"abc",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RedactBody([]byte(tt.body))
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("RedactBody() = %q, want it to contain %q", got, tt.wantContain)
			}
			if tt.wantAbsent != "" && strings.Contains(got, tt.wantAbsent) {
				t.Errorf("RedactBody() = %q, must not contain %q", got, tt.wantAbsent)
			}
		})
	}
}

func TestRedactBody_Empty(t *testing.T) {
	t.Parallel()
	if got := RedactBody(nil); got != "" {
		t.Errorf("RedactBody(nil) = %q, want empty", got)
	}
}
