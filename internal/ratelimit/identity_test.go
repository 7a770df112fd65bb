package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zacxyonly/manga-api-parsers/internal/auth"
	"github.com/zacxyonly/manga-api-parsers/internal/keystore"
)

func TestIdentity_PrincipalTokenWins(t *testing.T) {
	req := httptest.NewRequest("GET", "/?api_key=mk_query", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	p := &auth.Principal{KeyID: "id", Tier: keystore.TierRead, Token: "mk_principal"}
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), p))

	assert.Equal(t, "mk_principal", Identity(req))
}

func TestIdentity_ExtractedTokenBeforeIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/?api_key=mk_query", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")

	assert.Equal(t, "mk_query", Identity(req))
}

func TestIdentity_FallsBackToClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:41000"

	assert.Equal(t, "198.51.100.7", Identity(req))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for single",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for chain uses first hop",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2, 10.0.0.3"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.9",
		},
		{
			name:       "x-real-ip",
			headers:    map[string]string{"X-Real-IP": "203.0.113.10"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.10",
		},
		{
			name:       "remote addr with port",
			remoteAddr: "198.51.100.7:41000",
			want:       "198.51.100.7",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:41000",
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for name, value := range tt.headers {
				req.Header.Set(name, value)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
