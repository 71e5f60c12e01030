// Package router arma el árbol de rutas HTTP del servicio.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/guildmaster/internal/cache"
	"github.com/dropDatabas3/guildmaster/internal/http/controllers/connect"
	mw "github.com/dropDatabas3/guildmaster/internal/http/middlewares"
	"github.com/dropDatabas3/guildmaster/internal/metrics"
)

// Pinger permite chequear la disponibilidad de una dependencia.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *connect.Controllers
	Cache       cache.Client
	Store       Pinger // nil cuando el storage es en memoria
}

// New construye el router completo: flujo OAuth2, catálogo de
// proveedores, métricas y health checks.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	c := deps.Controllers

	// GET /oauth2/authorize/{client} - redirect saliente al proveedor
	r.Method(http.MethodGet, "/oauth2/authorize/{client}",
		oauthHandler("/oauth2/authorize/{client}", http.HandlerFunc(c.Authorize.Authorize)))

	// GET /oauth2/token/{client} - callback del proveedor (redirect URI)
	r.Method(http.MethodGet, "/oauth2/token/{client}",
		oauthHandler("/oauth2/token/{client}", http.HandlerFunc(c.Callback.Callback)))

	// GET /oauth2/providers - catálogo de proveedores registrados
	r.Method(http.MethodGet, "/oauth2/providers",
		oauthHandler("/oauth2/providers", http.HandlerFunc(c.Providers.List)))

	// Observabilidad
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", healthHandler())
	r.Get("/readyz", readyHandler(deps))

	return r
}

// oauthHandler crea el middleware chain para los endpoints del flujo.
func oauthHandler(pattern string, handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
		mw.WithMetrics(pattern),
		mw.WithLogging(),
	)
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readyHandler verifica las dependencias reales: cache y storage.
func readyHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := http.StatusOK

		if deps.Cache != nil {
			if err := deps.Cache.Ping(ctx); err != nil {
				checks["cache"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				checks["cache"] = "ok"
			}
		}
		if deps.Store != nil {
			if err := deps.Store.Ping(ctx); err != nil {
				checks["store"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				checks["store"] = "ok"
			}
		}

		writeStatus(w, status, checks)
	}
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
