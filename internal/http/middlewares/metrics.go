package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dropDatabas3/guildmaster/internal/metrics"
)

// WithMetrics alimenta los contadores Prometheus de la capa HTTP.
// El label de path usa el patrón de ruta (no el path real) para no
// explotar la cardinalidad con nombres de cliente arbitrarios.
func WithMetrics(routePattern string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			metrics.HTTPInflight.WithLabelValues(r.Method, routePattern).Inc()
			defer metrics.HTTPInflight.WithLabelValues(r.Method, routePattern).Dec()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, routePattern, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, routePattern).Observe(time.Since(start).Seconds())
		})
	}
}
