package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacxyonly/manga-api-parsers/internal/auth"
	"github.com/zacxyonly/manga-api-parsers/internal/keystore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(t *testing.T, limit int, principal *auth.Principal) *gin.Engine {
	t.Helper()
	limiter := NewLimiter(limit, time.Minute, nil)
	t.Cleanup(limiter.Stop)

	router := gin.New()
	if principal != nil {
		router.Use(func(c *gin.Context) {
			c.Set(auth.PrincipalKey, principal)
			c.Request = c.Request.WithContext(
				auth.ContextWithPrincipal(c.Request.Context(), principal))
		})
	}
	router.GET("/limited", Middleware(limiter, ClassRead, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestMiddleware_RejectsBeyondLimit(t *testing.T) {
	router := newLimitedRouter(t, 3, nil)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/limited", nil)
		req.RemoteAddr = "198.51.100.7:1000"
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/limited", nil)
	req.RemoteAddr = "198.51.100.7:1000"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestMiddleware_SeparateIdentitiesSeparateQuotas(t *testing.T) {
	router := newLimitedRouter(t, 1, nil)

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest("GET", "/limited", nil)
	reqA.Header.Set(auth.HeaderAPIKey, "mk_keyA")
	router.ServeHTTP(first, reqA)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	reqB := httptest.NewRequest("GET", "/limited", nil)
	reqB.Header.Set(auth.HeaderAPIKey, "mk_keyB")
	router.ServeHTTP(second, reqB)
	assert.Equal(t, http.StatusOK, second.Code, "different key, different quota")

	third := httptest.NewRecorder()
	reqA2 := httptest.NewRequest("GET", "/limited", nil)
	reqA2.Header.Set(auth.HeaderAPIKey, "mk_keyA")
	router.ServeHTTP(third, reqA2)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}

func TestMiddleware_AdminBypassesLimit(t *testing.T) {
	admin := &auth.Principal{KeyID: "id", Tier: keystore.TierAdmin, Token: "mk_admin"}
	router := newLimitedRouter(t, 1, admin)

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/limited", nil))
		require.Equal(t, http.StatusOK, w.Code, "admin request %d must bypass the limiter", i+1)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"), "admin traffic carries no quota headers")
	}
}
