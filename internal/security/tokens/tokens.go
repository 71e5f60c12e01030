// Package tokens generates opaque random tokens for anti-CSRF state and
// session identifiers.
package tokens

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateOpaqueToken returns nBytes of cryptographic entropy encoded as
// unpadded base64url.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
