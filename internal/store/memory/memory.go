// Package memory implements the client and token stores as in-process
// maps, for development mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dropDatabas3/guildmaster/internal/oauth2"
)

// Store implements oauth2.ClientStore and oauth2.TokenStore.
type Store struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*oauth2.Client
	tokens  map[uuid.UUID]*oauth2.Token
}

// New returns an empty store.
func New() *Store {
	return &Store{
		clients: make(map[uuid.UUID]*oauth2.Client),
		tokens:  make(map[uuid.UUID]*oauth2.Token),
	}
}

func (s *Store) UpsertClient(_ context.Context, c *oauth2.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clients {
		if existing.Name == c.Name {
			c.ID = existing.ID
			cp := *c
			s.clients[c.ID] = &cp
			return nil
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	s.clients[c.ID] = &cp
	return nil
}

func (s *Store) ClientByName(_ context.Context, name string) (*oauth2.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, oauth2.ErrClientNotFound
}

func (s *Store) ClientByID(_ context.Context, id uuid.UUID) (*oauth2.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, oauth2.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) Clients(_ context.Context) ([]*oauth2.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*oauth2.Client, 0, len(s.clients))
	for _, c := range s.clients {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpsertToken(_ context.Context, t *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tokens {
		if existing.UserID == t.UserID && existing.ClientID == t.ClientID {
			t.ID = existing.ID
			t.Version = existing.Version + 1
			cp := *t
			s.tokens[t.ID] = &cp
			return nil
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Version = 1
	cp := *t
	s.tokens[t.ID] = &cp
	return nil
}

func (s *Store) TokenByUserClient(_ context.Context, userID string, clientID uuid.UUID) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.UserID == userID && t.ClientID == clientID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, oauth2.ErrTokenNotFound
}

func (s *Store) TokenByID(_ context.Context, id uuid.UUID) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[id]
	if !ok {
		return nil, oauth2.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) UpdateTokenIfVersion(_ context.Context, t *oauth2.Token, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[t.ID]
	if !ok {
		return oauth2.ErrTokenNotFound
	}
	if stored.Version != expected {
		return oauth2.ErrVersionConflict
	}
	t.Version = expected + 1
	cp := *t
	s.tokens[t.ID] = &cp
	return nil
}

func (s *Store) ReleaseResource(_ context.Context, resource string, keep uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tokens {
		if id != keep && t.Resource == resource {
			t.Resource = ""
			t.Version++
		}
	}
	return nil
}

func (s *Store) DeleteToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}
