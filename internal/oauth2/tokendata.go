package oauth2

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"time"

	"github.com/dropDatabas3/guildmaster/internal/observability/logger"
)

// maxTokenResponseBytes bounds how much of a provider token response is
// read; well-formed responses are a few hundred bytes.
const maxTokenResponseBytes = 1 << 20

// TokenData is a parsed provider token-endpoint response. It is transient:
// the workflow copies it into a persisted Token.
//
// Timestamp is the authoritative origin time taken from the response Date
// header, not the local clock, so expiry arithmetic stays correct under
// client clock skew.
type TokenData struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresIn    int64
	Timestamp    time.Time
	Scope        string
	RedirectURI  string
}

// Expiry returns the absolute expiry instant, or false for non-expiring
// tokens (no expires_in in the provider response).
func (d TokenData) Expiry() (time.Time, bool) {
	if d.ExpiresIn == 0 {
		return time.Time{}, false
	}
	return d.Timestamp.Add(time.Duration(d.ExpiresIn) * time.Second), true
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorURI         string `json:"error_uri"`
}

// ParseTokenResponse normalizes a provider token-endpoint response into
// TokenData.
//
// The OAuth2 error body is checked before anything else, including on
// HTTP 200: some providers report errors with a success status. A body
// without access_token is malformed. Unknown fields are ignored for
// forward compatibility.
func ParseTokenResponse(resp *http.Response) (TokenData, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return TokenData{}, fmt.Errorf("read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return TokenData{}, fmt.Errorf("decode token response: %w", err)
	}

	if tr.Error != "" {
		return TokenData{}, &OAuth2Error{
			Code:        tr.Error,
			Description: tr.ErrorDescription,
			URI:         tr.ErrorURI,
		}
	}

	if tr.AccessToken == "" {
		return TokenData{}, fmt.Errorf("token response missing access_token")
	}

	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return TokenData{
		AccessToken:  tr.AccessToken,
		TokenType:    tokenType,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		Timestamp:    responseTimestamp(resp),
		Scope:        tr.Scope,
	}, nil
}

// responseTimestamp parses the Date response header into a UTC instant.
// http.ParseTime only covers the HTTP date formats (literal GMT zone);
// providers in the wild also emit RFC 5322 dates with numeric offsets or
// zone names like UTC, so those go through net/mail. A missing or
// unparseable header degrades to the current time; that is a documented
// fallback, not an error.
func responseTimestamp(resp *http.Response) time.Time {
	raw := resp.Header.Get("Date")
	if raw == "" {
		logger.L().Debug("token response has no Date header, using local time")
		return time.Now().UTC()
	}
	if ts, err := http.ParseTime(raw); err == nil {
		return ts.UTC()
	}
	ts, err := mail.ParseDate(raw)
	if err != nil {
		logger.L().Debug("unparseable Date header, using local time", logger.Err(err))
		return time.Now().UTC()
	}
	return ts.UTC()
}
