package oauth2

import "net/http"

// ExposedURL builds the externally visible absolute URL for a path on
// this application, honoring a reverse-proxy scheme override so redirect
// URIs are correct behind TLS-terminating proxies.
func ExposedURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + path
}
