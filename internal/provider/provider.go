// Package provider holds the static catalog of third-party OAuth2
// providers. Each provider is a plain data record describing its endpoint
// set and quirks; a Registry maps names to records and fails fast on
// duplicates so misconfiguration surfaces at startup, not at request time.
package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound indicates a lookup for a provider name that was never
// registered.
var ErrNotFound = errors.New("provider not registered")

// Identity is the provider-specific account identity extracted from a
// userinfo/resource response: a stable key (provider user ID) and a
// human-readable tag (username#discriminator, battletag, character name).
type Identity struct {
	Key string
	Tag string
}

// Provider describes one third-party OAuth2 endpoint set.
//
// HTTPBasicAuth selects where client credentials go on token requests:
// an HTTP Basic Authorization header when true, the form body when false.
// ExtractIdentity is optional; providers without a ResourceURL leave both
// unset and the workflow skips the resource lookup.
type Provider struct {
	Name            string
	Description     string
	AuthorizationURL string
	TokenURL        string
	RevocationURL   string
	VerificationURL string
	ResourceURL     string
	DefaultScopes   []string
	HTTPBasicAuth   bool
	ExtractIdentity func(body []byte) (Identity, error)
}

// Choice is a (name, description) pair for presentation layers.
type Choice struct {
	Name        string
	Description string
}

// Registry is an explicit provider catalog. The zero value is not usable;
// construct with NewRegistry or use Default.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Provider)}
}

// Register adds a provider to the catalog. A duplicate name is a
// configuration error: the caller is expected to treat it as fatal.
func (r *Registry) Register(p Provider) error {
	if p.Name == "" {
		return fmt.Errorf("provider with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.items[p.Name]; ok {
		return fmt.Errorf("provider %q already registered as %q", p.Name, prev.Description)
	}
	r.items[p.Name] = p
	return nil
}

// MustRegister is Register that panics on error, for init-time catalogs.
func (r *Registry) MustRegister(p Provider) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get resolves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[name]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// Choices returns the registered (name, description) pairs ordered by name.
func (r *Registry) Choices() []Choice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Choice, 0, len(names))
	for _, name := range names {
		out = append(out, Choice{Name: name, Description: r.items[name].Description})
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry with the built-in providers.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.MustRegister(Discord())
		defaultRegistry.MustRegister(BattleNet())
		defaultRegistry.MustRegister(EVEOnline())
		defaultRegistry.MustRegister(GitHub())
	})
	return defaultRegistry
}
