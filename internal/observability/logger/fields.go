package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard field constructors. Using these instead of raw zap.String keeps
// field names consistent across the codebase.

// RequestID is the per-request correlation ID.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method is the HTTP method of the inbound request.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path is the path of the inbound request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status is the HTTP status code of the response.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration is the elapsed handling time.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes is the response size.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// Client is the OAuth2 client (slug) involved in an operation.
func Client(v string) zap.Field {
	return zap.String("client", v)
}

// Provider is the OAuth2 provider name.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// User is the local user reference a token is bound to.
func User(v string) zap.Field {
	return zap.String("user", v)
}

// TokenID is the Token entity identifier.
func TokenID(v string) zap.Field {
	return zap.String("token_id", v)
}

// URL is a target URL (authorization redirects, token endpoints).
func URL(v string) zap.Field {
	return zap.String("url", v)
}

// Op identifies the operation being performed, usually Type.Method.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer identifies the architectural layer emitting the log.
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err wraps an error value.
func Err(err error) zap.Field {
	return zap.Error(err)
}
