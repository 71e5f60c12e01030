package connect

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/guildmaster/internal/http/httperrors"
	"github.com/dropDatabas3/guildmaster/internal/oauth2"
	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
)

// AuthorizeController handles the outbound leg of the workflow.
type AuthorizeController struct {
	deps Deps
}

// NewAuthorizeController creates the controller.
func NewAuthorizeController(deps Deps) *AuthorizeController {
	return &AuthorizeController{deps: deps}
}

// Authorize handles GET /oauth2/authorize/{client}?next={url}
//
// It generates the anti-CSRF state, stores it in the user's session
// together with the post-authorization return URL, and redirects the
// browser to the provider's authorization endpoint.
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorizeController.Authorize"))

	clientName := chi.URLParam(r, "client")
	if clientName == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing client name"))
		return
	}
	log = log.With(logger.Client(clientName))

	sess, err := c.deps.Sessions.Load(ctx, r)
	if err != nil {
		log.Error("failed to load session", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	wf, err := oauth2.NewWorkflow(ctx, clientName, c.deps.Manager, c.deps.Workflow)
	if err != nil {
		log.Warn("unusable client", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	// El next es relativo por diseño: nunca redirigimos a un host ajeno
	// después de la autorización.
	next := strings.TrimSpace(r.URL.Query().Get("next"))
	if next != "" && !strings.HasPrefix(next, "/") {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("next must be a relative path"))
		return
	}

	target, err := wf.AuthorizationURL(r, sess, next)
	if err != nil {
		log.Error("failed to build authorization URL", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	if err := c.deps.Sessions.Save(ctx, w, sess); err != nil {
		log.Error("failed to save session", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
