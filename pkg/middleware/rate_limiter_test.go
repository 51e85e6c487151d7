package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moviecatalog/pkg/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		subject := c.GetHeader("X-Subject")
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), auth.Identity{Subject: subject, Role: auth.RoleAdmin}))
		c.Next()
	})
	r.POST("/upload", RateLimiter(RateLimiterConfig{
		RedisClient: client,
		MaxRequests: 2,
		Window:      time.Minute,
	}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(subject string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.Header.Set("X-Subject", subject)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("alice").Code)
	w := send("alice")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = send("alice")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")

	// other callers have their own window
	assert.Equal(t, http.StatusOK, send("bob").Code)

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, send("alice").Code)
}

// failFirstExpire drops the first pipeline that carries an EXPIRE.
type failFirstExpire struct {
	failed bool
}

func (h *failFirstExpire) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *failFirstExpire) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *failFirstExpire) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if !h.failed {
			for _, cmd := range cmds {
				if cmd.Name() == "expire" {
					h.failed = true
					return errors.New("connection reset by peer")
				}
			}
		}
		return next(ctx, cmds)
	}
}

func newLimitedRouter(client *redis.Client, max int) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), auth.Identity{Subject: "alice", Role: auth.RoleAdmin}))
		c.Next()
	})
	r.POST("/upload", RateLimiter(RateLimiterConfig{
		RedisClient: client,
		MaxRequests: max,
		Window:      time.Minute,
	}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiterWindowSurvivesFailedExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	client.AddHook(&failFirstExpire{})

	r := newLimitedRouter(client, 1)
	send := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(), "limiter outage fails open")
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	const key = "rate_limit:/upload:alice"
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	mr.FastForward(time.Hour)
	assert.Equal(t, http.StatusOK, send())
}

func TestRateLimiterRearmsCounterWithoutTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	// a counter left behind with no expiry
	const key = "rate_limit:/upload:alice"
	require.NoError(t, mr.Set(key, "7"))

	r := newLimitedRouter(client, 1)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	r := gin.New()
	r.POST("/upload", RateLimiter(RateLimiterConfig{RedisClient: client, MaxRequests: 1}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiterDisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.POST("/upload", RateLimiter(RateLimiterConfig{}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}
