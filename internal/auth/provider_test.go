package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/familyhelper-app/console/internal/config"
)

// testProvider builds an IdentityProvider whose endpoints resolve to the
// provided test server.
func testProvider(t *testing.T, server *httptest.Server) *IdentityProvider {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	p := NewIdentityProvider(&config.Config{
		AuthDomain:   "unused.example.com",
		AuthClientID: "client-abc",
		AuthScopes:   []string{"openid", "email"},
	})
	// Point the provider at the local test server. httptest serves plain
	// HTTP, so endpoints are overridden wholesale.
	p.domain = u.Host
	p.httpClient = server.Client()
	return p
}

func TestRefreshTokens_SendsRefreshGrant(t *testing.T) {
	t.Parallel()

	var gotForm url.Values
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			http.NotFound(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
			t.Errorf("Content-Type = %q, want form-encoded", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-at","refresh_token":"new-rt","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := testProvider(t, server)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tokens, err := p.RefreshTokens(ctx, "old-rt")
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}

	if gotForm.Get("grant_type") != "refresh_token" {
		t.Errorf("grant_type = %q, want refresh_token", gotForm.Get("grant_type"))
	}
	if gotForm.Get("refresh_token") != "old-rt" {
		t.Errorf("refresh_token = %q, want old-rt", gotForm.Get("refresh_token"))
	}
	if gotForm.Get("client_id") != "client-abc" {
		t.Errorf("client_id = %q, want client-abc", gotForm.Get("client_id"))
	}
	if tokens.AccessToken != "new-at" || tokens.RefreshToken != "new-rt" {
		t.Errorf("tokens = %+v, want new-at/new-rt", tokens)
	}
}

func TestRefreshTokens_ErrorResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"refresh token revoked"}`))
	}))
	defer server.Close()

	p := testProvider(t, server)

	_, err := p.RefreshTokens(context.Background(), "revoked-rt")
	if err == nil {
		t.Fatal("RefreshTokens() error = nil, want invalid_grant failure")
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("error = %v, want it to mention invalid_grant", err)
	}
}

func TestUserInfo(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer provider-at" {
			t.Errorf("Authorization = %q, want Bearer provider-at", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"auth0|u1","email":"jane@example.com","given_name":"Jane","family_name":"Doe"}`))
	}))
	defer server.Close()

	p := testProvider(t, server)

	identity, err := p.UserInfo(context.Background(), "provider-at")
	if err != nil {
		t.Fatalf("UserInfo() error = %v", err)
	}
	want := Identity{ID: "auth0|u1", Email: "jane@example.com", GivenName: "Jane", FamilyName: "Doe"}
	if *identity != want {
		t.Errorf("UserInfo() = %+v, want %+v", *identity, want)
	}
}

func TestExchangeProviderToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/exchange" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"app-at","refreshToken":"app-rt"}`))
	}))
	defer server.Close()

	creds, err := ExchangeProviderToken(context.Background(), server.URL, "provider-at", &Identity{
		ID: "auth0|u1", Email: "jane@example.com", GivenName: "Jane", FamilyName: "Doe",
	})
	if err != nil {
		t.Fatalf("ExchangeProviderToken() error = %v", err)
	}
	if creds.AccessToken != "app-at" || creds.RefreshToken != "app-rt" {
		t.Errorf("creds = %+v, want app-at/app-rt", creds)
	}
}

func TestExchangeProviderToken_Failure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unknown identity"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := ExchangeProviderToken(context.Background(), server.URL, "provider-at", &Identity{ID: "x"})
	if err == nil {
		t.Fatal("ExchangeProviderToken() error = nil, want failure")
	}
}

func TestLoginFlow_StateMismatch(t *testing.T) {
	t.Parallel()

	p := NewIdentityProvider(&config.Config{
		AuthDomain:   "familyhelper.eu.auth0.com",
		AuthClientID: "client-abc",
	})
	flow := NewLoginFlow(p, NewMemoryStore(Credentials{}), "https://api.example.com", "http://127.0.0.1:8422/auth/callback")

	_, err := flow.Complete(context.Background(), CallbackResult{Code: "code", State: "wrong-state"})
	if err == nil || !strings.Contains(err.Error(), "state mismatch") {
		t.Errorf("Complete() error = %v, want state mismatch", err)
	}
}

func TestLoginFlow_AuthURLCarriesPKCE(t *testing.T) {
	t.Parallel()

	p := NewIdentityProvider(&config.Config{
		AuthDomain:   "familyhelper.eu.auth0.com",
		AuthClientID: "client-abc",
	})
	flow := NewLoginFlow(p, NewMemoryStore(Credentials{}), "https://api.example.com", "http://127.0.0.1:8422/auth/callback")

	authURL, err := url.Parse(flow.AuthURL())
	if err != nil {
		t.Fatalf("parse auth URL: %v", err)
	}
	q := authURL.Query()
	if q.Get("code_challenge") == "" {
		t.Error("auth URL missing code_challenge")
	}
	if q.Get("code_challenge_method") != "S256" {
		t.Errorf("code_challenge_method = %q, want S256", q.Get("code_challenge_method"))
	}
	if q.Get("state") != flow.State() {
		t.Errorf("state = %q, want %q", q.Get("state"), flow.State())
	}
}
