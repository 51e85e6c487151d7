package data

import (
	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/pkg/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB 创建数据库连接
func NewDB(cfg *conf.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewDB(database.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	// 自动迁移
	if cfg.Database.AutoMigrate {
		if err := autoMigrate(db); err != nil {
			return nil, nil, err
		}
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("failed to close database", zap.Error(err))
			}
		}
	}
	return db, cleanup, nil
}

// autoMigrate 自动迁移数据库表
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&MovieDO{},
	)
}
