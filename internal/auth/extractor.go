// Package auth provides credential extraction and tier authorization
// for the gateway.
package auth

import (
	"net/http"
	"strings"
)

// Credential channels, in precedence order.
const (
	// HeaderAuthorization carries "Bearer <token>".
	HeaderAuthorization = "Authorization"

	// HeaderAPIKey is the dedicated API key header.
	HeaderAPIKey = "X-API-Key"

	// QueryAPIKey is the API key query parameter.
	QueryAPIKey = "api_key"

	bearerPrefix = "Bearer "
)

// ExtractToken extracts an API key token from the request, first match
// wins: Authorization bearer token, then the dedicated header, then the
// query parameter. Extraction is side-effect-free.
func ExtractToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get(HeaderAuthorization); auth != "" {
		if len(auth) >= len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
			if token := strings.TrimSpace(auth[len(bearerPrefix):]); token != "" {
				return token, true
			}
		}
	}

	if token := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); token != "" {
		return token, true
	}

	if token := strings.TrimSpace(r.URL.Query().Get(QueryAPIKey)); token != "" {
		return token, true
	}

	return "", false
}
