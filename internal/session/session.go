// Package session implements the browser-session collaborator: a mutable
// string map scoped to one user agent, identified by an opaque cookie and
// persisted in the cache backend. The OAuth2 workflow stores the
// anti-CSRF state and the post-authorization return URL here between the
// two HTTP round trips.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/guildmaster/internal/cache"
	"github.com/dropDatabas3/guildmaster/internal/security/tokens"
)

const (
	// sessionIDBytes is the entropy of a session identifier.
	sessionIDBytes = 32

	cacheKeyPrefix = "session:"
)

// Session is a per-browser mutable key-value map. It is not safe for
// concurrent use; each inbound request works on its own copy and Save
// persists it (last writer wins, delegated to the backend).
type Session struct {
	id     string
	values map[string]string
	dirty  bool
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key, value string) {
	s.values[key] = value
	s.dirty = true
}

// Delete removes key.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// Config holds the session manager settings.
type Config struct {
	// CookieName is the session cookie name. Default "gm_session".
	CookieName string

	// Secure marks the cookie Secure; set behind TLS.
	Secure bool

	// TTL is the session lifetime in the backend and the cookie Max-Age.
	// Default 24h.
	TTL time.Duration
}

// Manager loads and saves sessions.
type Manager struct {
	cache cache.Client
	cfg   Config
}

// NewManager creates a session manager over the given cache backend.
func NewManager(c cache.Client, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "gm_session"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{cache: c, cfg: cfg}
}

// Load returns the session referenced by the request cookie, or a fresh
// one when the cookie is absent, the ID is unknown, or the stored payload
// is unreadable.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	ck, err := r.Cookie(m.cfg.CookieName)
	if err != nil || ck.Value == "" {
		return m.newSession()
	}

	raw, err := m.cache.Get(ctx, cacheKeyPrefix+ck.Value)
	if errors.Is(err, cache.ErrNotFound) {
		return m.newSession()
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return m.newSession()
	}
	return &Session{id: ck.Value, values: values}, nil
}

// Save persists the session and refreshes the cookie. A clean session is
// still re-written to slide its expiry.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	raw, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := m.cache.Set(ctx, cacheKeyPrefix+s.id, string(raw), m.cfg.TTL); err != nil {
		return fmt.Errorf("session: persist: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    s.id,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.dirty = false
	return nil
}

func (m *Manager) newSession() (*Session, error) {
	id, err := tokens.GenerateOpaqueToken(sessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("session: generate id: %w", err)
	}
	return &Session{id: id, values: make(map[string]string), dirty: true}, nil
}
