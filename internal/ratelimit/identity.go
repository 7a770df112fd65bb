package ratelimit

import (
	"net/http"
	"strings"

	"github.com/zacxyonly/manga-api-parsers/internal/auth"
)

// Identity resolves the quota identity for a request. An explicit API
// key always wins over any IP-derived fallback: two keys behind one NAT
// must not share a quota, and one key used from several egress IPs must
// share one.
func Identity(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		return p.Token
	}
	if token, ok := auth.ExtractToken(r); ok {
		return token
	}
	return GetClientIP(r)
}

// GetClientIP extracts the client IP from the request, honoring the
// usual forwarding headers before falling back to the socket address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	return ip
}
