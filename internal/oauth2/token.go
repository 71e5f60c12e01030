package oauth2

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// refreshCoefficient places the staleness threshold at half of the
// token's validity window, so refresh happens well before actual expiry
// and a token cannot expire mid-request.
const refreshCoefficient = 0.5

// Token is a persisted access/refresh token pair bound to one
// (user, client). One row exists per pair; the workflow upserts it on
// every successful exchange and Manager.Refresh mutates it in place.
type Token struct {
	ID       uuid.UUID
	UserID   string
	ClientID uuid.UUID

	TokenType    string
	AccessToken  string
	RefreshToken string

	// Timestamp is when the token was issued or last refreshed, taken
	// from the provider response Date header.
	Timestamp time.Time

	// ExpiresIn is the validity window in seconds; 0 means the provider
	// granted a non-expiring token.
	ExpiresIn int64

	Scope string

	// RedirectURI is the exact redirect URI used at issuance. Some
	// providers require it again on refresh requests.
	RedirectURI string

	// Resource is the provider account tag this token belongs to
	// (username#discriminator, battletag, character name).
	Resource string

	// Version guards concurrent refresh writes (compare-and-swap).
	Version int64
}

// Expiry returns the absolute expiry instant, or false for non-expiring
// tokens.
func (t *Token) Expiry() (time.Time, bool) {
	if t.ExpiresIn == 0 {
		return time.Time{}, false
	}
	return t.Timestamp.Add(time.Duration(t.ExpiresIn) * time.Second), true
}

// IsStale reports whether the token has crossed the half-life threshold
// and should be proactively refreshed. Non-expiring tokens are never
// stale.
func (t *Token) IsStale() bool {
	return t.IsStaleAt(time.Now())
}

// IsStaleAt is IsStale against an explicit clock.
func (t *Token) IsStaleAt(now time.Time) bool {
	if t.ExpiresIn == 0 {
		return false
	}
	threshold := t.Timestamp.Add(time.Duration(refreshCoefficient * float64(t.ExpiresIn) * float64(time.Second)))
	return !now.Before(threshold)
}

// AuthorizationValue is the Authorization header value for requests
// authenticated by this token, e.g. "Bearer xyz".
func (t *Token) AuthorizationValue() string {
	return titleCase(t.TokenType) + " " + t.AccessToken
}

// applyData copies a parsed token response into the entity. A missing
// refresh token in the response keeps the previous one: providers that do
// not rotate refresh tokens omit the field, and silently dropping the
// stored value would make the token permanently unrefreshable.
func (t *Token) applyData(d TokenData) {
	t.Timestamp = d.Timestamp
	t.TokenType = d.TokenType
	t.AccessToken = d.AccessToken
	t.ExpiresIn = d.ExpiresIn
	if d.RefreshToken != "" {
		t.RefreshToken = d.RefreshToken
	}
	if d.Scope != "" {
		t.Scope = d.Scope
	}
	if d.RedirectURI != "" {
		t.RedirectURI = d.RedirectURI
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
