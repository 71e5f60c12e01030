package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/guildmaster/internal/security/tokens"
)

const requestIDHeader = "X-Request-ID"

// WithRequestID propaga el request ID que manda el cliente o genera uno
// opaco nuevo. El ID viaja en el header de respuesta y en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if rid == "" {
				rid, _ = tokens.GenerateOpaqueToken(12)
			}
			w.Header().Set(requestIDHeader, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}
