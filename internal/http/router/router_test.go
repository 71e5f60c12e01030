package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/guildmaster/internal/cache"
	"github.com/dropDatabas3/guildmaster/internal/http/controllers/connect"
	"github.com/dropDatabas3/guildmaster/internal/oauth2"
	"github.com/dropDatabas3/guildmaster/internal/provider"
	"github.com/dropDatabas3/guildmaster/internal/session"
	memstore "github.com/dropDatabas3/guildmaster/internal/store/memory"
)

// newTestApp levanta el servicio completo contra un proveedor falso y
// devuelve la URL base y un cliente HTTP con cookies que no sigue
// redirects.
func newTestApp(t *testing.T) (string, *http.Client) {
	t.Helper()

	providerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			r.ParseForm()
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"at","token_type":"bearer","refresh_token":"rt","expires_in":3600}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(providerSrv.Close)

	reg := provider.NewRegistry()
	reg.MustRegister(provider.Provider{
		Name:             "acme",
		Description:      "Acme",
		AuthorizationURL: providerSrv.URL + "/authorize",
		TokenURL:         providerSrv.URL + "/token",
		DefaultScopes:    []string{"identify"},
	})

	st := memstore.New()
	require.NoError(t, st.UpsertClient(context.Background(), &oauth2.Client{
		Name: "acme-main", ProviderName: "acme", Enabled: true, ClientID: "cid", ClientSecret: "shh",
	}))

	cacheClient := cache.NewMemory(time.Hour)
	manager := oauth2.NewManager(reg, st, st, oauth2.WithHTTPClient(providerSrv.Client()))
	sessions := session.NewManager(cacheClient, session.Config{})

	controllers := connect.NewControllers(connect.Deps{
		Manager:  manager,
		Sessions: sessions,
		Users: func(r *http.Request, sess *session.Session) (string, error) {
			return "user-1", nil
		},
	})

	app := httptest.NewServer(New(Deps{Controllers: controllers, Cache: cacheClient}))
	t.Cleanup(app.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return app.URL, client
}

func TestRouter_FullAuthorizationFlow(t *testing.T) {
	t.Parallel()
	base, client := newTestApp(t)

	// Pata saliente: redirect al proveedor con state, y cookie de sesión
	resp, err := client.Get(base + "/oauth2/authorize/acme-main?next=/done")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	require.Equal(t, "code", loc.Query().Get("response_type"))
	require.Contains(t, loc.Query().Get("redirect_uri"), "/oauth2/token/acme-main")

	// Callback: intercambio y redirect al next original
	cb := base + "/oauth2/token/acme-main?code=good-code&state=" + url.QueryEscape(state)
	resp, err = client.Get(cb)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/done", resp.Header.Get("Location"))
}

func TestRouter_ForgedStateRejected(t *testing.T) {
	t.Parallel()
	base, client := newTestApp(t)

	resp, err := client.Get(base + "/oauth2/authorize/acme-main")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = client.Get(base + "/oauth2/token/acme-main?code=good-code&state=forged")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "STATE_MISMATCH", body.Code)
}

func TestRouter_CallbackWithoutSessionRejected(t *testing.T) {
	t.Parallel()
	base, client := newTestApp(t)

	// Sin pasar por /authorize no hay state en la sesión
	resp, err := client.Get(base + "/oauth2/token/acme-main?code=good-code&state=whatever")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_UnknownClient(t *testing.T) {
	t.Parallel()
	base, client := newTestApp(t)

	resp, err := client.Get(base + "/oauth2/authorize/missing")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRouter_ProviderDenialIsForbidden(t *testing.T) {
	t.Parallel()
	base, client := newTestApp(t)

	resp, err := client.Get(base + "/oauth2/authorize/acme-main")
	require.NoError(t, err)
	resp.Body.Close()
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")

	// El proveedor niega la autorización via error param
	resp, err = client.Get(base + "/oauth2/token/acme-main?error=access_denied&state=" + url.QueryEscape(state))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "PROVIDER_REJECTED", body.Code)
}

func TestRouter_ProvidersAndHealth(t *testing.T) {
	t.Parallel()
	base, client := newTestApp(t)

	resp, err := client.Get(base + "/oauth2/providers")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Providers []struct {
			Name string `json:"name"`
		} `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Providers, 1)
	require.Equal(t, "acme", body.Providers[0].Name)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		r2, err := client.Get(base + path)
		require.NoError(t, err)
		r2.Body.Close()
		require.Equal(t, http.StatusOK, r2.StatusCode, path)
	}
}
