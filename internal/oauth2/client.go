package oauth2

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/guildmaster/internal/provider"
	"github.com/dropDatabas3/guildmaster/internal/security/tokens"
)

// DefaultStateBytes is the entropy of a generated anti-CSRF state token.
const DefaultStateBytes = 32

// Client is a configured OAuth2 client: a registered application at one
// provider, identified locally by a unique slug used in callback URLs.
type Client struct {
	ID           uuid.UUID
	Name         string
	ProviderName string
	Enabled      bool
	ClientID     string
	ClientSecret string
	// ScopeOverride replaces the provider default scopes when non-empty;
	// whitespace-separated, order preserved.
	ScopeOverride string
}

// Provider resolves the client's provider record. An unknown provider
// name is a configuration error: the client row references a driver that
// was never registered.
func (c *Client) Provider(reg *provider.Registry) (provider.Provider, error) {
	p, err := reg.Get(c.ProviderName)
	if err != nil {
		return provider.Provider{}, &ConfigurationError{
			Reason: "client " + c.Name + " references unknown provider " + c.ProviderName,
			Err:    err,
		}
	}
	return p, nil
}

// Scopes returns the effective scope list: the override when set,
// otherwise the provider defaults.
func (c *Client) Scopes(p provider.Provider) []string {
	if fields := strings.Fields(c.ScopeOverride); len(fields) > 0 {
		return fields
	}
	return p.DefaultScopes
}

// CallbackPath is the deterministic callback route derived from the
// client name. It must match the route the HTTP layer mounts.
func (c *Client) CallbackPath() string {
	return "/oauth2/token/" + c.Name
}

// AuthorizationRedirect builds the provider authorization URL and the
// state parameter carried in it. When state is empty a fresh random token
// of stateBytes entropy is generated. The caller persists the returned
// state into the session.
func (c *Client) AuthorizationRedirect(r *http.Request, p provider.Provider, state string, stateBytes int) (string, string, error) {
	if state == "" {
		if stateBytes <= 0 {
			stateBytes = DefaultStateBytes
		}
		var err error
		state, err = tokens.GenerateOpaqueToken(stateBytes)
		if err != nil {
			return "", "", err
		}
	}

	target, err := url.Parse(p.AuthorizationURL)
	if err != nil {
		return "", "", &ConfigurationError{Reason: "bad authorization URL for provider " + p.Name, Err: err}
	}
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", ExposedURL(r, c.CallbackPath()))
	q.Set("scope", strings.Join(c.Scopes(p), " "))
	q.Set("state", state)
	target.RawQuery = q.Encode()
	return target.String(), state, nil
}

// TokenRequest builds the authorization-code exchange POST. Credentials
// go in an HTTP Basic header when the provider requires it, in which case
// client_secret stays out of the body; otherwise both credentials travel
// in the form body.
func (c *Client) TokenRequest(r *http.Request, p provider.Provider) (*http.Request, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", r.URL.Query().Get("code"))
	form.Set("redirect_uri", ExposedURL(r, c.CallbackPath()))
	form.Set("client_id", c.ClientID)
	if !p.HTTPBasicAuth {
		form.Set("client_secret", c.ClientSecret)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if p.HTTPBasicAuth {
		req.SetBasicAuth(c.ClientID, c.ClientSecret)
	}
	return req, nil
}
