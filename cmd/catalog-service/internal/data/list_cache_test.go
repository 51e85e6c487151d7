package data

import (
	"context"
	"testing"
	"time"

	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/cmd/catalog-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestListCache(t *testing.T) (domain.ListCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &conf.Config{}
	cfg.Redis.ListCacheTTL = time.Minute
	return NewListCache(client, cfg, zap.NewNop()), mr
}

func TestListCache_RoundTripAndInvalidate(t *testing.T) {
	c, mr := newTestListCache(t)
	ctx := context.Background()
	rating := 7.5
	q := domain.MovieQuery{Genre: "Drama", MinRating: &rating, Page: 1, Limit: 10}

	_, key, ok := c.Get(ctx, q)
	assert.False(t, ok)
	require.NotEmpty(t, key)

	c.Set(ctx, key, &domain.MoviePage{Total: 1, Page: 1, Limit: 10, Data: []*domain.Movie{{ID: "m-1", Name: "Heat"}}})

	page, _, ok := c.Get(ctx, q)
	require.True(t, ok)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Heat", page.Data[0].Name)

	// a different filter is a different entry
	_, other, ok := c.Get(ctx, domain.MovieQuery{Genre: "Drama", Page: 1, Limit: 10})
	assert.False(t, ok)
	assert.NotEqual(t, key, other)

	c.Invalidate(ctx)
	_, _, ok = c.Get(ctx, q)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, []string{"movies:list:version"}, mr.Keys(), "stale pages expire by ttl")
}

func TestListCache_EmptyPageKeepsDataSlice(t *testing.T) {
	c, _ := newTestListCache(t)
	ctx := context.Background()
	q := domain.MovieQuery{Page: 3, Limit: 10}

	_, key, _ := c.Get(ctx, q)
	c.Set(ctx, key, &domain.MoviePage{Total: 0, Page: 3, Limit: 10, Data: []*domain.Movie{}})

	page, _, ok := c.Get(ctx, q)
	require.True(t, ok)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestListCache_RedisDownIsAMiss(t *testing.T) {
	c, mr := newTestListCache(t)
	mr.Close()

	ctx := context.Background()
	q := domain.MovieQuery{Page: 1, Limit: 10}
	_, key, ok := c.Get(ctx, q)
	assert.False(t, ok)
	assert.Empty(t, key, "no version, nothing to bind a page to")
	c.Set(ctx, key, &domain.MoviePage{Data: []*domain.Movie{}})
	c.Invalidate(ctx)

	_, _, ok = c.Get(ctx, q)
	assert.False(t, ok)
}

func TestNewListCache_NilClient(t *testing.T) {
	c := NewListCache(nil, &conf.Config{}, zap.NewNop())
	ctx := context.Background()
	q := domain.MovieQuery{Page: 1, Limit: 10}

	_, key, ok := c.Get(ctx, q)
	assert.False(t, ok)
	c.Set(ctx, key, &domain.MoviePage{})
	_, _, ok = c.Get(ctx, q)
	assert.False(t, ok)
	c.Invalidate(ctx)
}

func TestListCache_FillAfterInvalidateIsNotServed(t *testing.T) {
	c, _ := newTestListCache(t)
	ctx := context.Background()
	q := domain.MovieQuery{Page: 1, Limit: 10}

	// reader misses and goes to the store
	_, key, ok := c.Get(ctx, q)
	require.False(t, ok)

	// a write lands before the reader fills the cache
	c.Invalidate(ctx)
	c.Set(ctx, key, &domain.MoviePage{Total: 0, Page: 1, Limit: 10, Data: []*domain.Movie{}})

	_, fresh, ok := c.Get(ctx, q)
	assert.False(t, ok, "page read before the write must not be served after it")
	assert.NotEqual(t, key, fresh)
}
