package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cinescope/proj/internal/domain/models"
)

const stateFileName = "session.json"

// record is the on-disk shape: the bearer token with its absolute
// expiration, plus the last-known user identity. The two live under
// fixed keys in one file and are always cleared together.
type record struct {
	Token     string       `json:"token,omitempty"`
	ExpiresAt time.Time    `json:"expires_at,omitempty"`
	User      *models.User `json:"user,omitempty"`
}

// Store persists the session credentials in the state directory.
// Purely local: no network calls.
type Store struct {
	path string
	mu   sync.RWMutex
	rec  record
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &Store{path: filepath.Join(dir, stateFileName)}
	s.load()
	return s, nil
}

// Set stores the token with the given lifetime.
func (s *Store) Set(token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Token = token
	s.rec.ExpiresAt = time.Now().Add(ttl)
	return s.save()
}

// Get returns the token if one is stored and not expired. An expired
// record is treated as absent and purged from disk (lazy expiry).
func (s *Store) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.Token == "" {
		return "", false
	}
	if time.Now().After(s.rec.ExpiresAt) {
		s.rec = record{}
		_ = s.remove()
		return "", false
	}
	return s.rec.Token, true
}

// SetUser caches the user identity alongside the token.
func (s *Store) SetUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.User = u
	return s.save()
}

// User returns the cached identity, or nil when none is stored.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec.User == nil {
		return nil
	}
	u := *s.rec.User
	return &u
}

// Clear deletes the token and the cached identity together.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = record{}
	return s.remove()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &s.rec); err != nil {
		// Corrupt state: start anonymous.
		s.rec = record{}
		_ = s.remove()
	}
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session state: %w", err)
	}
	return nil
}
