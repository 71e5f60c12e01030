package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/guildmaster/internal/oauth2"
)

// errorResponse estructura interna para la serialización JSON.
// Esto nos permite controlar exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// FromError traduce errores de las capas inferiores a un AppError con status HTTP.
//
// Mapeo de la taxonomía del flujo OAuth2:
//   - ConfigurationError  -> 500 (cliente o proveedor mal configurado, es culpa nuestra)
//   - StateMismatchError  -> 403 (posible CSRF, nunca se intercambia el code)
//   - OAuth2Error         -> 403 (el proveedor negó la autorización explícitamente)
//   - CommunicationError  -> 503 (el proveedor no respondió o respondió basura)
//   - ErrClientNotFound   -> 404
//
// Cualquier otro error cae en 500 genérico conservando la causa para logs.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var cfgErr *oauth2.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ErrConfiguration.WithDetail(cfgErr.Reason).WithCause(err)
	}

	var stateErr *oauth2.StateMismatchError
	if errors.As(err, &stateErr) {
		return ErrStateMismatch.WithCause(err)
	}

	var oerr *oauth2.OAuth2Error
	if errors.As(err, &oerr) {
		return ErrProviderRejected.WithDetail(oerr.Error()).WithCause(err)
	}

	var commErr *oauth2.CommunicationError
	if errors.As(err, &commErr) {
		return ErrProviderUnavailable.WithCause(err)
	}

	if errors.Is(err, oauth2.ErrClientNotFound) {
		return ErrClientNotFound.WithCause(err)
	}

	return ErrInternalServerError.WithCause(err)
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
