// Package connect hosts the HTTP controllers of the authorization-code
// workflow: the outbound redirect to the provider and the inbound
// callback that exchanges the code.
package connect

import (
	"net/http"

	"github.com/dropDatabas3/guildmaster/internal/http/httperrors"
	"github.com/dropDatabas3/guildmaster/internal/oauth2"
	"github.com/dropDatabas3/guildmaster/internal/session"
)

// UserFunc resolves the local user on whose behalf tokens are stored.
// How users authenticate is outside this service; deployments plug in
// whatever maps a request to a stable user ID.
type UserFunc func(r *http.Request, sess *session.Session) (string, error)

// SessionUser is the default UserFunc: it reads the "user_id" value that
// an upstream auth layer is expected to have placed in the session.
func SessionUser(r *http.Request, sess *session.Session) (string, error) {
	if id, ok := sess.Get("user_id"); ok && id != "" {
		return id, nil
	}
	return "", httperrors.ErrUnauthenticated
}

// Deps agrupa las dependencias compartidas por los controllers.
type Deps struct {
	Manager  *oauth2.Manager
	Sessions *session.Manager
	Workflow oauth2.WorkflowConfig
	Users    UserFunc
}

// Controllers agrupa los controllers del flujo de conexión.
type Controllers struct {
	Authorize *AuthorizeController
	Callback  *CallbackController
	Providers *ProvidersController
}

// NewControllers construye el set completo de controllers.
func NewControllers(deps Deps) *Controllers {
	if deps.Users == nil {
		deps.Users = SessionUser
	}
	deps.Workflow = deps.Workflow.WithDefaults()
	return &Controllers{
		Authorize: NewAuthorizeController(deps),
		Callback:  NewCallbackController(deps),
		Providers: NewProvidersController(deps.Manager.Registry()),
	}
}
