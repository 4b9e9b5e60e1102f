package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(t.Context(), 2, time.Minute)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ok, remaining := limiter.Allow("10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining = limiter.Allow("10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _ = limiter.Allow("10.0.0.1")
	assert.False(t, ok, "third request inside the window")

	ok, _ = limiter.Allow("10.0.0.2")
	assert.True(t, ok, "keys are counted separately")

	now = now.Add(time.Minute)
	ok, remaining = limiter.Allow("10.0.0.1")
	assert.True(t, ok, "a new window starts")
	assert.Equal(t, 1, remaining)
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(t.Context(), 1, time.Minute)

	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/verify/:token", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify/def", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), ErrCodeRateLimited)
}
