package connect

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/guildmaster/internal/http/httperrors"
	"github.com/dropDatabas3/guildmaster/internal/oauth2"
	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
)

// CallbackController handles the inbound leg of the workflow.
type CallbackController struct {
	deps Deps
}

// NewCallbackController creates the controller.
func NewCallbackController(deps Deps) *CallbackController {
	return &CallbackController{deps: deps}
}

// Callback handles GET /oauth2/token/{client}?code=...&state=...
//
// Validation order matters: the state is compared before the provider's
// error parameter is even looked at, so a forged callback cannot steer
// the response. Only after a matching state does the code exchange run.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

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

	if err := wf.ValidateCallback(r, sess); err != nil {
		// El state consumido debe persistirse aunque el callback falle,
		// un retry con el mismo state no puede volver a pasar.
		_ = c.deps.Sessions.Save(ctx, w, sess)
		httperrors.WriteError(w, err)
		return
	}

	userID, err := c.deps.Users(r, sess)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	log = log.With(logger.User(userID))

	token, err := wf.FetchToken(r, userID)
	if err != nil {
		_ = c.deps.Sessions.Save(ctx, w, sess)
		httperrors.WriteError(w, err)
		return
	}

	returnURL := wf.ReturnURL(sess)
	sess.Delete(c.deps.Workflow.SessionReturnKey)
	if err := c.deps.Sessions.Save(ctx, w, sess); err != nil {
		log.Error("failed to save session", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	log.Info("authorization completed", logger.TokenID(token.ID.String()))
	http.Redirect(w, r, returnURL, http.StatusFound)
}
