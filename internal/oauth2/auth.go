package oauth2

import (
	"context"
	"io"
	"net/http"

	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
)

// TokenAuth is an http.RoundTripper that authenticates outbound requests
// with a stored token. Before each request a stale token is refreshed
// (refresh-then-use: proactive refresh avoids the extra round trip of a
// retry-on-401 scheme). A 401 or 403 from the protected resource means
// the token is invalid server-side despite looking fresh locally, which
// only re-authorization can fix.
type TokenAuth struct {
	manager *Manager
	token   *Token
	base    http.RoundTripper
}

// NewTokenAuth wraps base (nil means http.DefaultTransport) with token
// authentication.
func NewTokenAuth(m *Manager, t *Token, base http.RoundTripper) *TokenAuth {
	if base == nil {
		base = http.DefaultTransport
	}
	return &TokenAuth{manager: m, token: t, base: base}
}

// Client returns an *http.Client that authenticates with this token.
func (a *TokenAuth) Client() *http.Client {
	return &http.Client{Transport: a, Timeout: defaultHTTPTimeout}
}

// RoundTrip implements http.RoundTripper.
func (a *TokenAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if a.token.IsStale() {
		if err := a.manager.EnsureFresh(ctx, a.token); err != nil {
			return nil, err
		}
	}

	// Per RoundTripper contract the original request is not mutated.
	authed := req.Clone(ctx)
	authed.Header.Set("Authorization", a.token.AuthorizationValue())

	resp, err := a.base.RoundTrip(authed)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()
		authErr := &AuthorizationRequiredError{
			Client: a.clientName(ctx),
			User:   a.token.UserID,
			Status: resp.StatusCode,
		}
		logger.From(ctx).Warn("protected resource rejected token",
			logger.TokenID(a.token.ID.String()), logger.Err(authErr))
		return nil, authErr
	}
	return resp, nil
}

// clientName resolves the owning client's slug for error messages,
// degrading to the raw client ID when the row is gone.
func (a *TokenAuth) clientName(ctx context.Context) string {
	client, err := a.manager.clients.ClientByID(ctx, a.token.ClientID)
	if err != nil {
		return a.token.ClientID.String()
	}
	return client.Name
}
