package oauth2

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dropDatabas3/guildmaster/internal/provider"
)

func testProvider(basicAuth bool) provider.Provider {
	return provider.Provider{
		Name:             "acme",
		Description:      "Acme",
		AuthorizationURL: "https://acme.example/oauth/authorize",
		TokenURL:         "https://acme.example/oauth/token",
		DefaultScopes:    []string{"identify", "email"},
		HTTPBasicAuth:    basicAuth,
	}
}

func TestClient_Scopes(t *testing.T) {
	t.Parallel()
	p := testProvider(false)

	c := &Client{Name: "acme-main"}
	if got := strings.Join(c.Scopes(p), " "); got != "identify email" {
		t.Fatalf("default scopes = %q", got)
	}

	c.ScopeOverride = "  guilds   identify "
	if got := strings.Join(c.Scopes(p), " "); got != "guilds identify" {
		t.Fatalf("override scopes = %q", got)
	}
}

func TestClient_AuthorizationRedirect(t *testing.T) {
	t.Parallel()
	p := testProvider(false)
	c := &Client{Name: "acme-main", ClientID: "cid-123"}

	r := httptest.NewRequest("GET", "http://app.example/oauth2/authorize/acme-main", nil)
	target, state, err := c.AuthorizationRedirect(r, p, "", 32)
	if err != nil {
		t.Fatalf("AuthorizationRedirect err: %v", err)
	}
	if state == "" {
		t.Fatalf("no state generated")
	}

	u, err := url.Parse(target)
	if err != nil {
		t.Fatalf("bad url: %v", err)
	}
	q := u.Query()
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("client_id") != "cid-123" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://app.example/oauth2/token/acme-main" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("scope") != "identify email" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") != state {
		t.Fatalf("state in url %q != returned %q", q.Get("state"), state)
	}
}

func TestClient_AuthorizationRedirect_ExplicitState(t *testing.T) {
	t.Parallel()
	p := testProvider(false)
	c := &Client{Name: "acme-main", ClientID: "cid"}

	r := httptest.NewRequest("GET", "http://app.example/x", nil)
	_, state, err := c.AuthorizationRedirect(r, p, "fixed-state", 32)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if state != "fixed-state" {
		t.Fatalf("state = %q", state)
	}
}

func TestClient_AuthorizationRedirect_StateUniqueness(t *testing.T) {
	t.Parallel()
	p := testProvider(false)
	c := &Client{Name: "acme-main", ClientID: "cid"}
	r := httptest.NewRequest("GET", "http://app.example/x", nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		_, state, err := c.AuthorizationRedirect(r, p, "", 32)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if seen[state] {
			t.Fatalf("state repeated: %q", state)
		}
		seen[state] = true
	}
}

func TestClient_TokenRequest_BodyCredentials(t *testing.T) {
	t.Parallel()
	p := testProvider(false)
	c := &Client{Name: "acme-main", ClientID: "cid", ClientSecret: "shh"}

	r := httptest.NewRequest("GET", "http://app.example/oauth2/token/acme-main?code=abc&state=s", nil)
	req, err := c.TokenRequest(r, p)
	if err != nil {
		t.Fatalf("TokenRequest err: %v", err)
	}

	if _, _, ok := req.BasicAuth(); ok {
		t.Fatalf("unexpected basic auth header")
	}
	body := readForm(t, req)
	if body.Get("grant_type") != "authorization_code" {
		t.Fatalf("grant_type = %q", body.Get("grant_type"))
	}
	if body.Get("code") != "abc" {
		t.Fatalf("code = %q", body.Get("code"))
	}
	if body.Get("client_secret") != "shh" {
		t.Fatalf("client_secret missing from body")
	}
	if body.Get("redirect_uri") != "http://app.example/oauth2/token/acme-main" {
		t.Fatalf("redirect_uri = %q", body.Get("redirect_uri"))
	}
}

func TestClient_TokenRequest_BasicAuthCredentials(t *testing.T) {
	t.Parallel()
	p := testProvider(true)
	c := &Client{Name: "acme-main", ClientID: "cid", ClientSecret: "shh"}

	r := httptest.NewRequest("GET", "http://app.example/oauth2/token/acme-main?code=abc", nil)
	req, err := c.TokenRequest(r, p)
	if err != nil {
		t.Fatalf("TokenRequest err: %v", err)
	}

	user, pass, ok := req.BasicAuth()
	if !ok || user != "cid" || pass != "shh" {
		t.Fatalf("basic auth = %q/%q ok=%v", user, pass, ok)
	}
	body := readForm(t, req)
	if body.Get("client_secret") != "" {
		t.Fatalf("client_secret leaked into body with basic auth")
	}
}

func TestExposedURL_ForwardedProto(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "http://app.example/x", nil)
	if got := ExposedURL(r, "/cb"); got != "http://app.example/cb" {
		t.Fatalf("plain = %q", got)
	}

	r.Header.Set("X-Forwarded-Proto", "https")
	if got := ExposedURL(r, "/cb"); got != "https://app.example/cb" {
		t.Fatalf("forwarded = %q", got)
	}
}

func readForm(t *testing.T, req *http.Request) url.Values {
	t.Helper()
	if err := req.ParseForm(); err != nil {
		t.Fatalf("ParseForm err: %v", err)
	}
	return req.PostForm
}
