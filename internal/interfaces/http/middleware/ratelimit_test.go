package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimiter(t *testing.T, n int, every time.Duration) *RateLimiter {
	t.Helper()
	l := NewRateLimiter(n, every)
	t.Cleanup(l.Stop)
	return l
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := newLimiter(t, 3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client"), "request %d", i+1)
		}
		assert.False(t, limiter.Allow("client"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := newLimiter(t, 1, time.Minute)
		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := newLimiter(t, 1, 50*time.Millisecond)
		assert.True(t, limiter.Allow("c"))
		assert.False(t, limiter.Allow("c"))
		time.Sleep(60 * time.Millisecond)
		assert.True(t, limiter.Allow("c"))
	})

	t.Run("remaining", func(t *testing.T) {
		limiter := newLimiter(t, 5, time.Minute)
		assert.Equal(t, 5, limiter.Remaining("d"))
		limiter.Allow("d")
		limiter.Allow("d")
		assert.Equal(t, 3, limiter.Remaining("d"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := newLimiter(t, 100, time.Minute)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("e") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, allowed)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Stop()
		limiter.Stop()
	})
}

func TestAuthRateLimit(t *testing.T) {
	global := newLimiter(t, 100, time.Minute)
	authLimiter := newLimiter(t, 2, time.Minute)

	router := gin.New()
	router.POST("/auth/login", AuthRateLimit(authLimiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/api/products", RateLimit(global), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(method, path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodPost, "/auth/login", "192.168.1.100")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/auth/login", "192.168.1.100").Code)

	blocked := send(http.MethodPost, "/auth/login", "192.168.1.100")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "RATE_LIMITED")
	assert.Contains(t, blocked.Body.String(), "Too many authentication attempts")

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/auth/login", "192.168.1.101").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/products", "192.168.1.100").Code)
}
