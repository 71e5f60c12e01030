package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
	"go.uber.org/zap"
)

// WithRecover captura panics en los handlers y responde 500 en vez de
// tumbar el proceso. El stack queda en los logs.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						zap.Any("panic", rec),
						zap.Stack("stack"),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
