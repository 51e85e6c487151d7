package data

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/cmd/catalog-service/internal/domain"
	"moviecatalog/pkg/cache"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	listCachePrefix = "movies:list"
	listVersionKey  = "version"
)

// ListCache caches listing pages in redis. Every write bumps a version
// counter, so pages cached under an older version are never read again
// and expire by TTL.
type ListCache struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewListCache 创建列表缓存，未配置 Redis 时返回空实现
func NewListCache(client *redis.Client, cfg *conf.Config, logger *zap.Logger) domain.ListCache {
	if client == nil {
		return nopListCache{}
	}
	return newListCache(cache.NewRedisCache(client, cache.CacheOptions{
		DefaultTTL: cfg.Redis.ListCacheTTL,
		KeyPrefix:  listCachePrefix,
	}), cfg.Redis.ListCacheTTL, logger)
}

func newListCache(c cache.Cache, ttl time.Duration, logger *zap.Logger) *ListCache {
	return &ListCache{cache: c, ttl: ttl, logger: logger}
}

// Get 读取缓存页，任何错误都按未命中处理。未命中时返回绑定当前版本的 key
func (c *ListCache) Get(ctx context.Context, q domain.MovieQuery) (*domain.MoviePage, string, bool) {
	key, err := c.pageKey(ctx, q)
	if err != nil {
		c.logger.Debug("list cache version lookup failed", zap.Error(err))
		return nil, "", false
	}

	var page domain.MoviePage
	if err := c.cache.GetObject(ctx, key, &page); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Debug("list cache get failed", zap.Error(err))
		}
		return nil, key, false
	}
	if page.Data == nil {
		page.Data = []*domain.Movie{}
	}
	return &page, key, true
}

// Set stores a page under the key returned by a missed Get. Pages stored
// under a version that has since been bumped are never read.
func (c *ListCache) Set(ctx context.Context, key string, page *domain.MoviePage) {
	if key == "" {
		return
	}
	if err := c.cache.SetObject(ctx, key, page, c.ttl); err != nil {
		c.logger.Debug("list cache set failed", zap.Error(err))
	}
}

// Invalidate 使所有缓存页失效
func (c *ListCache) Invalidate(ctx context.Context) {
	if _, err := c.cache.Incr(ctx, listVersionKey); err != nil {
		c.logger.Warn("list cache invalidate failed", zap.Error(err))
	}
}

func (c *ListCache) pageKey(ctx context.Context, q domain.MovieQuery) (string, error) {
	version, err := c.cache.GetInt(ctx, listVersionKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("v%d:%s", version, queryKey(q)), nil
}

func queryKey(q domain.MovieQuery) string {
	v := url.Values{}
	v.Set("genre", q.Genre)
	if q.MinRating != nil {
		v.Set("rating", strconv.FormatFloat(*q.MinRating, 'g', -1, 64))
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	return v.Encode()
}

type nopListCache struct{}

func (nopListCache) Get(context.Context, domain.MovieQuery) (*domain.MoviePage, string, bool) {
	return nil, "", false
}
func (nopListCache) Set(context.Context, string, *domain.MoviePage) {}
func (nopListCache) Invalidate(context.Context)                     {}
