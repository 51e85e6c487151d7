package data

import (
	"context"

	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/cmd/catalog-service/internal/domain"
	"moviecatalog/pkg/database"
	"moviecatalog/pkg/health"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProviderSet 数据层提供者集合
var ProviderSet = wire.NewSet(
	NewDB,
	NewRedisClient,
	NewMovieRepo,
	NewSpreadsheetDecoder,
	wire.Bind(new(domain.TabularDecoder), new(*SpreadsheetDecoder)),
	NewImportArchive,
	NewListCache,
	NewEventPublisher,
	NewHealthChecker,
)

// NewMovieRepo 创建电影仓储
func NewMovieRepo(db *gorm.DB, cfg *conf.Config) domain.MovieRepository {
	return NewMovieRepository(db, cfg.Ingest.ChunkSize)
}

// NewHealthChecker registers the store as a required dependency and redis,
// when configured, as an optional one.
func NewHealthChecker(db *gorm.DB, rdb *redis.Client, cfg *conf.Config) *health.HealthChecker {
	h := health.NewHealthChecker(cfg.Observability.ServiceName, cfg.Observability.ServiceVersion)
	h.Register(health.NewPingChecker("postgres", true, database.Ping(db)))
	if rdb != nil {
		h.Register(health.NewPingChecker("redis", false, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}
	return h
}
