// Package metrics exposes the Prometheus collectors for the OAuth2
// engine and the HTTP layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AuthorizationRedirects counts issued authorization redirects per
	// client.
	AuthorizationRedirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildmaster_authorization_redirects_total",
		Help: "Authorization redirects issued, by client.",
	}, []string{"client"})

	// TokenExchanges counts authorization-code exchanges per client and
	// outcome (success|oauth_error|comm_error).
	TokenExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildmaster_token_exchanges_total",
		Help: "Authorization-code token exchanges, by client and outcome.",
	}, []string{"client", "outcome"})

	// TokenRefreshes counts refresh-grant calls per client and outcome.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildmaster_token_refreshes_total",
		Help: "Refresh-token grants, by client and outcome.",
	}, []string{"client", "outcome"})

	// CallbackRejections counts callbacks rejected before the exchange,
	// by reason (state_mismatch|provider_error).
	CallbackRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildmaster_callback_rejections_total",
		Help: "Authorization callbacks rejected during validation, by reason.",
	}, []string{"client", "reason"})

	// HTTPRequestsTotal counts handled requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// HTTPInflight gauges requests currently being handled.
	HTTPInflight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "In-flight HTTP requests by method and route.",
	}, []string{"method", "path"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
