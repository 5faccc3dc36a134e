package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/familyhelper-app/console/internal/auth"
)

func TestFetchSantaEvent(t *testing.T) {
	t.Parallel()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"name":"Office 2026","exchangeDate":"2026-12-18","budget":"$30","needsCredentials":true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, auth.NewMemoryStore(auth.Credentials{}), &fakeRefresher{})
	event, err := client.FetchSantaEvent(context.Background(), "evt-token")
	if err != nil {
		t.Fatalf("FetchSantaEvent: %v", err)
	}
	if gotPath != "/secret-santa/evt-token" {
		t.Errorf("path = %q", gotPath)
	}
	if event.Name != "Office 2026" || !event.NeedsCredentials {
		t.Errorf("event = %+v", event)
	}
}

func TestVerifySantaCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/secret-santa/evt-token/verify" {
			t.Errorf("path = %q", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var creds SantaCredentials
		_ = json.Unmarshal(raw, &creds)
		if creds.Email != "p@example.com" || creds.Passcode != "7777" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid participant credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, auth.NewMemoryStore(auth.Credentials{}), &fakeRefresher{})

	if err := client.VerifySantaCredentials(context.Background(), "evt-token", SantaCredentials{Email: "p@example.com", Passcode: "7777"}); err != nil {
		t.Fatalf("verify with valid credentials: %v", err)
	}

	err := client.VerifySantaCredentials(context.Background(), "evt-token", SantaCredentials{Email: "p@example.com", Passcode: "0000"})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if apiErr.Message != "Invalid participant credentials" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestFetchSantaDataSendsCredentialsPerCall(t *testing.T) {
	t.Parallel()

	var gotBody SantaCredentials
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/secret-santa/evt-token/data" {
			t.Errorf("path = %q", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{
			"participantName": "Pat",
			"assignedTo": "Lee",
			"assignedItems": [{"id": "i1", "name": "Scarf", "purchased": false}]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, auth.NewMemoryStore(auth.Credentials{}), &fakeRefresher{})
	data, err := client.FetchSantaData(context.Background(), "evt-token", SantaCredentials{Email: "p@example.com", Passcode: "7777"})
	if err != nil {
		t.Fatalf("FetchSantaData: %v", err)
	}
	if gotBody.Email != "p@example.com" || gotBody.Passcode != "7777" {
		t.Errorf("credentials not passed per call: %+v", gotBody)
	}
	if data.AssignedTo != "Lee" || len(data.AssignedItems) != 1 {
		t.Errorf("data = %+v", data)
	}
}

func TestPurchaseSantaItem(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, auth.NewMemoryStore(auth.Credentials{}), &fakeRefresher{})
	creds := SantaCredentials{Email: "p@example.com", Passcode: "7777"}
	if err := client.PurchaseSantaItem(context.Background(), "evt-token", "i1", creds); err != nil {
		t.Fatalf("PurchaseSantaItem: %v", err)
	}
	if gotPath != "/secret-santa/evt-token/items/i1/purchase" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["email"] != "p@example.com" || gotBody["itemId"] != "i1" {
		t.Errorf("body = %v", gotBody)
	}
}
