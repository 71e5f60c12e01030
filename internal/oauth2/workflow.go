package oauth2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dropDatabas3/guildmaster/internal/metrics"
	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
	"github.com/dropDatabas3/guildmaster/internal/provider"
	"github.com/dropDatabas3/guildmaster/internal/session"
)

// WorkflowConfig carries the per-deployment knobs of the
// authorization-code workflow.
type WorkflowConfig struct {
	// StateBytes is the entropy of generated state tokens.
	// Default DefaultStateBytes.
	StateBytes int

	// DefaultReturnURL is where the user lands after authorization when
	// no explicit return URL was requested. Default "/".
	DefaultReturnURL string

	// SessionStateKey and SessionReturnKey name the session entries used
	// between the two round trips.
	SessionStateKey  string
	SessionReturnKey string
}

// WithDefaults fills the zero-valued knobs.
func (c WorkflowConfig) WithDefaults() WorkflowConfig {
	if c.StateBytes == 0 {
		c.StateBytes = DefaultStateBytes
	}
	if c.DefaultReturnURL == "" {
		c.DefaultReturnURL = "/"
	}
	if c.SessionStateKey == "" {
		c.SessionStateKey = "oauth2_state"
	}
	if c.SessionReturnKey == "" {
		c.SessionReturnKey = "oauth2_return_url"
	}
	return c
}

// Workflow drives the authorization-code grant for one named client:
// authorization redirect, callback validation, code exchange and token
// upsert. No workflow state is kept on the struct; everything between
// the two HTTP round trips lives in the user's session.
type Workflow struct {
	client  *Client
	manager *Manager
	cfg     WorkflowConfig
}

// NewWorkflow resolves the named client and binds it to a workflow.
// Unknown and disabled clients are configuration errors.
func NewWorkflow(ctx context.Context, clientName string, m *Manager, cfg WorkflowConfig) (*Workflow, error) {
	client, err := m.clients.ClientByName(ctx, clientName)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, &ConfigurationError{Reason: "no client found: " + clientName, Err: err}
		}
		return nil, err
	}
	if !client.Enabled {
		return nil, &ConfigurationError{Reason: "client disabled: " + clientName}
	}
	return &Workflow{client: client, manager: m, cfg: cfg.WithDefaults()}, nil
}

// Client returns the bound client configuration.
func (w *Workflow) Client() *Client { return w.client }

// AuthorizationURL builds the provider authorization redirect and stores
// the generated state and the return URL in the session.
func (w *Workflow) AuthorizationURL(r *http.Request, sess *session.Session, returnURL string) (string, error) {
	prov, err := w.client.Provider(w.manager.registry)
	if err != nil {
		return "", err
	}
	target, state, err := w.client.AuthorizationRedirect(r, prov, "", w.cfg.StateBytes)
	if err != nil {
		return "", err
	}
	if returnURL == "" {
		returnURL = w.cfg.DefaultReturnURL
	}
	sess.Set(w.cfg.SessionStateKey, state)
	sess.Set(w.cfg.SessionReturnKey, returnURL)
	metrics.AuthorizationRedirects.WithLabelValues(w.client.Name).Inc()
	logger.From(r.Context()).Debug("built authorization URL",
		logger.Client(w.client.Name), logger.Provider(prov.Name), logger.URL(target))
	return target, nil
}

// ValidateCallback checks the provider callback before any exchange.
//
// The state comparison runs first so a forged or replayed callback is
// rejected regardless of any attacker-supplied error payload; only then
// is a provider-reported error surfaced. The state is single-use: it is
// cleared from the session once matched.
func (w *Workflow) ValidateCallback(r *http.Request, sess *session.Session) error {
	log := logger.From(r.Context()).With(logger.Client(w.client.Name))
	query := r.URL.Query()

	expected, ok := sess.Get(w.cfg.SessionStateKey)
	received := query.Get("state")
	if !ok || expected == "" || received != expected {
		metrics.CallbackRejections.WithLabelValues(w.client.Name, "state_mismatch").Inc()
		log.Error("state mismatch", logger.Op("Workflow.ValidateCallback"))
		return &StateMismatchError{Received: received, Expected: expected}
	}
	sess.Delete(w.cfg.SessionStateKey)

	if errCode := query.Get("error"); errCode != "" {
		exc := &OAuth2Error{
			Code:        errCode,
			Description: query.Get("error_description"),
			URI:         query.Get("error_uri"),
		}
		metrics.CallbackRejections.WithLabelValues(w.client.Name, "provider_error").Inc()
		log.Error("authorization request error", logger.Err(exc))
		return exc
	}
	return nil
}

// FetchToken exchanges the callback's authorization code for tokens,
// resolves the provider account identity when the provider exposes a
// resource endpoint, and upserts the Token row for (userID, client).
func (w *Workflow) FetchToken(r *http.Request, userID string) (*Token, error) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Client(w.client.Name), logger.User(userID))

	prov, err := w.client.Provider(w.manager.registry)
	if err != nil {
		return nil, err
	}

	req, err := w.client.TokenRequest(r, prov)
	if err != nil {
		return nil, err
	}
	data, err := w.manager.exchange(req, prov.Name)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues(w.client.Name, exchangeOutcome(err)).Inc()
		log.Error("failed to fetch access token", logger.Err(err))
		return nil, err
	}
	data.RedirectURI = ExposedURL(r, w.client.CallbackPath())

	var identity string
	if prov.ResourceURL != "" {
		identity, err = w.fetchResourceTag(ctx, prov.ResourceURL, titleCase(data.TokenType)+" "+data.AccessToken, prov.ExtractIdentity)
		if err != nil {
			metrics.TokenExchanges.WithLabelValues(w.client.Name, "comm_error").Inc()
			log.Error("failed to fetch user info", logger.Err(err))
			return nil, err
		}
	}

	token, err := w.manager.tokens.TokenByUserClient(ctx, userID, w.client.ID)
	if errors.Is(err, ErrTokenNotFound) {
		token = &Token{UserID: userID, ClientID: w.client.ID}
	} else if err != nil {
		return nil, err
	}
	token.applyData(data)
	if identity != "" {
		token.Resource = identity
	}
	// El store de Postgres impone unicidad sobre resource: el tag debe
	// liberarse de otras filas antes de escribirlo en esta.
	if token.Resource != "" {
		if err := w.manager.tokens.ReleaseResource(ctx, token.Resource, token.ID); err != nil {
			return nil, err
		}
	}
	if err := w.manager.tokens.UpsertToken(ctx, token); err != nil {
		return nil, err
	}

	metrics.TokenExchanges.WithLabelValues(w.client.Name, "success").Inc()
	log.Info("token obtained", logger.Provider(prov.Name), logger.TokenID(token.ID.String()))
	return token, nil
}

// fetchResourceTag performs the authenticated userinfo call and extracts
// the provider account tag via the provider's capability.
func (w *Workflow) fetchResourceTag(ctx context.Context, resourceURL, authorization string, extract func([]byte) (provider.Identity, error)) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")

	resp, err := w.manager.httpClient.Do(req)
	if err != nil {
		return "", &CommunicationError{Provider: w.client.ProviderName, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &CommunicationError{
			Provider: w.client.ProviderName,
			Err:      fmt.Errorf("resource endpoint status %d", resp.StatusCode),
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return "", &CommunicationError{Provider: w.client.ProviderName, Err: err}
	}
	if extract == nil {
		return "", nil
	}
	id, err := extract(body)
	if err != nil {
		return "", &CommunicationError{Provider: w.client.ProviderName, Err: err}
	}
	if id.Tag != "" {
		return id.Tag, nil
	}
	return id.Key, nil
}

// ReturnURL reads the session-stored post-authorization URL, falling
// back to the configured default.
func (w *Workflow) ReturnURL(sess *session.Session) string {
	if url, ok := sess.Get(w.cfg.SessionReturnKey); ok && url != "" {
		return url
	}
	return w.cfg.DefaultReturnURL
}

func exchangeOutcome(err error) string {
	var oe *OAuth2Error
	if errors.As(err, &oe) {
		return "oauth_error"
	}
	return "comm_error"
}
