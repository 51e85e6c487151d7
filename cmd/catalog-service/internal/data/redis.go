package data

import (
	"context"
	"fmt"
	"time"

	"moviecatalog/cmd/catalog-service/internal/conf"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient 创建 Redis 客户端. Returns nil when redis.addr is empty;
// callers treat a nil client as "feature disabled".
func NewRedisClient(cfg *conf.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, list cache and upload rate limit disabled")
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis", zap.Error(err))
		}
	}
	return client, cleanup, nil
}
