package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/zacxyonly/manga-api-parsers/internal/source"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProxyRouter() *gin.Engine {
	p := NewImageProxy(source.NewRegistry(), 5*time.Second, nil)
	router := gin.New()
	router.GET("/proxy", p.Handler())
	return router
}

func TestHandler_MissingURLParameter(t *testing.T) {
	router := newProxyRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/proxy", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.Contains(t, w.Body.String(), "url parameter is required")
}

func TestHandler_BlockedTargets(t *testing.T) {
	router := newProxyRouter()

	tests := []struct {
		name string
		url  string
	}{
		{"http scheme", "http://example.com/a.png"},
		{"loopback", "https://127.0.0.1/a.png"},
		{"private network", "https://10.0.0.5/a.png"},
		{"metadata endpoint", "https://169.254.169.254/latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/proxy?url="+tt.url, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation_error")
		})
	}
}

func TestHandler_UnreachableUpstream(t *testing.T) {
	p := NewImageProxy(source.NewRegistry(), 500*time.Millisecond, nil)
	router := gin.New()
	router.GET("/proxy", p.Handler())

	// Reserved TEST-NET-3 address: validation passes, the fetch fails.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/proxy?url=https://203.0.113.1/a.png", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_failure")
}

func TestNewImageProxy_Defaults(t *testing.T) {
	p := NewImageProxy(nil, 0, nil)
	assert.NotNil(t, p.client)
	assert.Equal(t, 30*time.Second, p.client.Timeout)
}
