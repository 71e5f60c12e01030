package oauth2

import (
	"errors"
	"fmt"
)

// The error taxonomy of the engine. Every provider-facing failure is
// caught at the edge of the component that made the call and re-raised as
// one of these; raw transport errors never cross the workflow or token
// boundary.

// ConfigurationError reports duplicate or unknown providers and clients.
// Surfaced as a server error (500).
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// StateMismatchError is the anti-CSRF failure: the callback state did not
// exactly match the session-stored value. Surfaced as forbidden (403).
type StateMismatchError struct {
	Received string
	Expected string
}

func (e *StateMismatchError) Error() string {
	return fmt.Sprintf("state mismatch: %q received, %q expected", e.Received, e.Expected)
}

// OAuth2Error is a provider-reported denial, either via the callback query
// parameters or a token-endpoint error body (RFC 6749 §5.2). Surfaced as
// forbidden (403).
type OAuth2Error struct {
	Code        string
	Description string
	URI         string
}

func (e *OAuth2Error) Error() string {
	text := e.Code
	if e.Description != "" {
		text += ": " + e.Description
	}
	if e.URI != "" {
		text += " (" + e.URI + ")"
	}
	return text
}

// CommunicationError is a network/transport failure or unexpected non-2xx
// response talking to the provider. Not retried by this engine; surfaced
// as service-unavailable (503).
type CommunicationError struct {
	Provider string
	Err      error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("communication failure with %s: %v", e.Provider, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// ErrRefreshUnsupported indicates the token carries no refresh token.
// Terminal for that token: re-authorization is required.
var ErrRefreshUnsupported = errors.New("token has no refresh token")

// AuthorizationRequiredError is raised by TokenAuth when the protected
// resource answers 401/403 despite a locally fresh token: the stored token
// is invalid server-side and re-authorization (not refresh) is required.
type AuthorizationRequiredError struct {
	Client string
	User   string
	Status int
}

func (e *AuthorizationRequiredError) Error() string {
	return fmt.Sprintf("%s authorization token failed for user %s (status %d)", e.Client, e.User, e.Status)
}
