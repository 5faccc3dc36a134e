// Package auth manages the application session credential pair and the
// identity-provider flows that mint it: browser login with PKCE, the
// server-side token exchange, and the refresh-token grant.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Credential file layout uses fixed key names so the web and mobile clients
// can share exported credentials.
const credentialsFileName = "credentials.json"

// Credentials is the application token pair issued by the backend exchange.
// A zero AccessToken means unauthenticated.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// IsZero reports whether no credential material is held at all.
func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store persists the credential pair. Implementations must be safe for use
// from concurrent API calls.
type Store interface {
	// Load returns the stored pair; a missing file yields zero Credentials.
	Load(ctx context.Context) (Credentials, error)
	// Save overwrites the stored pair.
	Save(ctx context.Context, creds Credentials) error
	// Clear deletes both tokens.
	Clear(ctx context.Context) error
}

// FileStore keeps the pair in a mode-0600 JSON file under the credentials
// directory, the closest analogue of platform secure storage available to a
// terminal client.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed credential store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, credentialsFileName)}
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("auth store: read credentials: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Credentials{}, nil
	}
	var creds Credentials
	if err = json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("auth store: parse credentials: %w", err)
	}
	return creds, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("auth store: create dir: %w", err)
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("auth store: marshal credentials: %w", err)
	}
	if err = os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("auth store: write credentials: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("auth store: clear credentials: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Store used by tests and previews.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

// NewMemoryStore creates a store seeded with the provided pair.
func NewMemoryStore(creds Credentials) *MemoryStore {
	return &MemoryStore{creds: creds}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}
