package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name      string
		header    map[string]string
		target    string
		wantToken string
		wantOK    bool
	}{
		{
			name:      "bearer token",
			header:    map[string]string{HeaderAuthorization: "Bearer mk_abc"},
			target:    "/api/sources",
			wantToken: "mk_abc",
			wantOK:    true,
		},
		{
			name:      "bearer is case-insensitive",
			header:    map[string]string{HeaderAuthorization: "bearer mk_abc"},
			target:    "/api/sources",
			wantToken: "mk_abc",
			wantOK:    true,
		},
		{
			name:      "api key header",
			header:    map[string]string{HeaderAPIKey: "mk_header"},
			target:    "/api/sources",
			wantToken: "mk_header",
			wantOK:    true,
		},
		{
			name:      "query parameter",
			header:    nil,
			target:    "/api/sources?api_key=mk_query",
			wantToken: "mk_query",
			wantOK:    true,
		},
		{
			name: "bearer wins over header and query",
			header: map[string]string{
				HeaderAuthorization: "Bearer mk_bearer",
				HeaderAPIKey:        "mk_header",
			},
			target:    "/api/sources?api_key=mk_query",
			wantToken: "mk_bearer",
			wantOK:    true,
		},
		{
			name:      "header wins over query",
			header:    map[string]string{HeaderAPIKey: "mk_header"},
			target:    "/api/sources?api_key=mk_query",
			wantToken: "mk_header",
			wantOK:    true,
		},
		{
			name:   "no credential",
			header: nil,
			target: "/api/sources",
			wantOK: false,
		},
		{
			name:   "empty bearer falls through to nothing",
			header: map[string]string{HeaderAuthorization: "Bearer "},
			target: "/api/sources",
			wantOK: false,
		},
		{
			name:      "non-bearer authorization falls through to header",
			header:    map[string]string{HeaderAuthorization: "Basic dXNlcg==", HeaderAPIKey: "mk_header"},
			target:    "/api/sources",
			wantToken: "mk_header",
			wantOK:    true,
		},
		{
			name:      "whitespace trimmed",
			header:    map[string]string{HeaderAPIKey: "  mk_padded  "},
			target:    "/api/sources",
			wantToken: "mk_padded",
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			for name, value := range tt.header {
				req.Header.Set(name, value)
			}

			token, ok := ExtractToken(req)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantToken, token)
			}
		})
	}
}
