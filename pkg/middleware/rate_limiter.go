package middleware

import (
	"fmt"
	"strconv"
	"time"

	apierrors "moviecatalog/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	RedisClient *redis.Client
	MaxRequests int           // 最大请求数
	Window      time.Duration // 时间窗口
	KeyPrefix   string        // Redis key前缀
	Logger      *zap.Logger
}

// RateLimiter fixed-window limiter keyed by the caller's identity.
// It must be chained after AuthMiddleware. A nil RedisClient disables it.
func RateLimiter(config RateLimiterConfig) gin.HandlerFunc {
	if config.RedisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit"
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 10
	}
	if config.Window == 0 {
		config.Window = time.Minute
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		// 1. 构建限流key（用户维度）
		subject := c.ClientIP()
		if id, ok := GetIdentity(c); ok && id.Subject != "" {
			subject = id.Subject
		}
		key := fmt.Sprintf("%s:%s:%s", config.KeyPrefix, c.FullPath(), subject)

		ctx := c.Request.Context()

		// 2. 增加计数并设置窗口（MULTI 保证两条命令同时生效）
		// NX only arms a key without a TTL, so the window is fixed and a
		// counter that ever lost its TTL is re-armed on the next request.
		pipe := config.RedisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, config.Window)
		_, err := pipe.Exec(ctx)
		count := incr.Val()
		if err != nil {
			// limiter outage must not take the endpoint down
			config.Logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		reset := strconv.FormatInt(time.Now().Add(config.Window).Unix(), 10)
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Header("X-RateLimit-Reset", reset)

		// 3. 检查是否超限
		if count > int64(config.MaxRequests) {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			Abort(c, apierrors.ErrTooManyRequests)
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(config.MaxRequests)-count, 10))
		c.Next()
	}
}
