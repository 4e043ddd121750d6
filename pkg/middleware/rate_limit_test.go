package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedRouter(t *testing.T, limit int) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	router := setupTestRouter()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("user_id", id)
		}
		c.Next()
	})
	router.Use(RateLimitMiddleware(client, limit, time.Minute))
	router.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, mr
}

func hit(router *gin.Engine, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/r", nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_LimitsPerCaller(t *testing.T) {
	router, _ := rateLimitedRouter(t, 2)

	assert.Equal(t, http.StatusOK, hit(router, "user-1").Code)
	assert.Equal(t, http.StatusOK, hit(router, "user-1").Code)

	w := hit(router, "user-1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(router, "user-2").Code, "other callers have their own window")
}

func TestRateLimitMiddleware_WindowExpires(t *testing.T) {
	router, mr := rateLimitedRouter(t, 1)

	assert.Equal(t, http.StatusOK, hit(router, "user-1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "user-1").Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit(router, "user-1").Code)
}

func TestRateLimitMiddleware_RedisDown(t *testing.T) {
	router, mr := rateLimitedRouter(t, 5)
	mr.Close()

	w := hit(router, "user-1")
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
