package mw

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(1, 2, HeaderOrIP("X-Device-ID")))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	device := map[string]string{"X-Device-ID": "esp32-a"}
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", device).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", device).Code)

	w := perform(r, http.MethodGet, "/ping", device)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")

	// Another device behind the same address has its own budget.
	other := map[string]string{"X-Device-ID": "esp32-b"}
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", other).Code)
}

func TestResponseCache(t *testing.T) {
	var hits atomic.Int32
	rc := NewResponseCache(time.Minute)

	r := gin.New()
	r.Use(rc.Handler())
	r.GET("/api/sensor-config", func(c *gin.Context) {
		hits.Add(1)
		c.JSON(http.StatusOK, gin.H{"total_records": hits.Load()})
	})
	r.GET("/api/missing", func(c *gin.Context) {
		hits.Add(1)
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})

	first := perform(r, http.MethodGet, "/api/sensor-config", nil)
	second := perform(r, http.MethodGet, "/api/sensor-config", nil)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, int32(1), hits.Load())

	rc.Purge("/api/sensor")
	perform(r, http.MethodGet, "/api/sensor-config", nil)
	assert.Equal(t, int32(2), hits.Load())

	// Errors are never cached.
	perform(r, http.MethodGet, "/api/missing", nil)
	perform(r, http.MethodGet, "/api/missing", nil)
	assert.Equal(t, int32(4), hits.Load())
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := perform(r, http.MethodGet, "/ping", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	w = perform(r, http.MethodGet, "/ping", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestIdentifyAndOwnerScope(t *testing.T) {
	r := gin.New()
	r.Use(Identify())
	r.GET("/scope", func(c *gin.Context) {
		scope := OwnerScope(c)
		if scope == nil {
			c.String(http.StatusOK, "all")
			return
		}
		c.String(http.StatusOK, "user")
	})
	r.DELETE("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	testCases := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		code    int
		body    string
	}{
		{"anonymous", http.MethodGet, "/scope", nil, http.StatusOK, "all"},
		{"user", http.MethodGet, "/scope", map[string]string{UserIDHeader: "7"}, http.StatusOK, "user"},
		{"admin", http.MethodGet, "/scope", map[string]string{UserIDHeader: "1", UserRoleHeader: "ADMIN"}, http.StatusOK, "all"},
		{"bad id", http.MethodGet, "/scope", map[string]string{UserIDHeader: "abc"}, http.StatusUnauthorized, ""},
		{"user on admin route", http.MethodDelete, "/admin", map[string]string{UserIDHeader: "7"}, http.StatusForbidden, ""},
		{"admin on admin route", http.MethodDelete, "/admin", map[string]string{UserIDHeader: "1", UserRoleHeader: "admin"}, http.StatusNoContent, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(r, tc.method, tc.path, tc.headers)
			assert.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}
