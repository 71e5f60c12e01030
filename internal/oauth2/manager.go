package oauth2

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/guildmaster/internal/metrics"
	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
	"github.com/dropDatabas3/guildmaster/internal/provider"
)

// defaultHTTPTimeout bounds every outbound provider call. The engine
// never blocks a request handler on an unbounded provider socket.
const defaultHTTPTimeout = 10 * time.Second

// Manager owns the outbound HTTP client and the token stores, and
// performs the provider calls shared by the workflow and TokenAuth:
// token exchange and refresh.
type Manager struct {
	httpClient *http.Client
	registry   *provider.Registry
	clients    ClientStore
	tokens     TokenStore

	// refreshGroup collapses concurrent refreshes of the same token into
	// one provider call.
	refreshGroup singleflight.Group
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithHTTPClient replaces the outbound HTTP client (tests point it at
// httptest servers).
func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) { m.httpClient = c }
}

// NewManager creates a Manager over the given registry and stores.
func NewManager(reg *provider.Registry, clients ClientStore, tokens TokenStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		registry:   reg,
		clients:    clients,
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the provider registry the manager resolves against.
func (m *Manager) Registry() *provider.Registry { return m.registry }

// exchange sends a prepared token-endpoint request and normalizes the
// response. Provider-reported OAuth2 errors pass through typed; transport
// failures, unexpected statuses and malformed bodies become
// CommunicationError so raw transport errors never leak upward.
func (m *Manager) exchange(req *http.Request, providerName string) (TokenData, error) {
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return TokenData{}, &CommunicationError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	data, err := ParseTokenResponse(resp)
	if err != nil {
		var oe *OAuth2Error
		if errors.As(err, &oe) {
			return TokenData{}, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return TokenData{}, &CommunicationError{
				Provider: providerName,
				Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
			}
		}
		return TokenData{}, &CommunicationError{Provider: providerName, Err: err}
	}
	return data, nil
}

// Refresh exchanges the token's refresh token for a fresh access token
// and persists the result. A token without a refresh token cannot be
// refreshed; that is terminal and requires re-authorization.
//
// The write is a compare-and-swap on the token version: when another
// request refreshed concurrently and won, this writer discards its
// result and adopts the stored row instead of overwriting it.
func (m *Manager) Refresh(ctx context.Context, t *Token) error {
	log := logger.From(ctx).With(logger.Op("Manager.Refresh"), logger.TokenID(t.ID.String()))

	if t.RefreshToken == "" {
		return fmt.Errorf("%w: token %s", ErrRefreshUnsupported, t.ID)
	}

	client, err := m.clients.ClientByID(ctx, t.ClientID)
	if err != nil {
		return &ConfigurationError{Reason: "token references unknown client", Err: err}
	}
	prov, err := client.Provider(m.registry)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", t.RefreshToken)
	form.Set("redirect_uri", t.RedirectURI)
	form.Set("scope", t.Scope)
	if !prov.HTTPBasicAuth {
		form.Set("client_id", client.ClientID)
		form.Set("client_secret", client.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, prov.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if prov.HTTPBasicAuth {
		req.SetBasicAuth(client.ClientID, client.ClientSecret)
	}

	log.Debug("sending refresh request", logger.URL(prov.TokenURL), logger.Provider(prov.Name))
	data, err := m.exchange(req, prov.Name)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(client.Name, "failure").Inc()
		log.Error("token refresh failed", logger.Err(err))
		return err
	}

	expected := t.Version
	t.applyData(data)
	switch err := m.tokens.UpdateTokenIfVersion(ctx, t, expected); {
	case errors.Is(err, ErrVersionConflict):
		// A concurrent refresh won the race; its result is newer than
		// ours would be by the time we stored it.
		stored, loadErr := m.tokens.TokenByID(ctx, t.ID)
		if loadErr != nil {
			return loadErr
		}
		*t = *stored
		log.Debug("refresh lost version race, adopted stored token")
	case err != nil:
		return err
	}

	metrics.TokenRefreshes.WithLabelValues(client.Name, "success").Inc()
	log.Info("token refreshed", logger.Client(client.Name), logger.User(t.UserID))
	return nil
}

// EnsureFresh refreshes t when it is stale. Concurrent callers for the
// same token share one refresh via singleflight; every caller ends up
// with the refreshed row.
func (m *Manager) EnsureFresh(ctx context.Context, t *Token) error {
	if !t.IsStale() {
		return nil
	}
	v, err, _ := m.refreshGroup.Do(t.ID.String(), func() (any, error) {
		current, err := m.tokens.TokenByID(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if current.IsStale() {
			if err := m.Refresh(ctx, current); err != nil {
				return nil, err
			}
		}
		return current, nil
	})
	if err != nil {
		return err
	}
	*t = *(v.(*Token))
	return nil
}
