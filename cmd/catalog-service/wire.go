//go:build wireinject
// +build wireinject

package main

import (
	"moviecatalog/cmd/catalog-service/internal/biz"
	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/cmd/catalog-service/internal/data"
	"moviecatalog/cmd/catalog-service/internal/server"
	"moviecatalog/cmd/catalog-service/internal/service"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// initApp 初始化应用
func initApp(cfg *conf.Config, logger *zap.Logger) (*server.HTTPServer, func(), error) {
	wire.Build(
		newNormalizerOptions,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
	)
	return nil, nil, nil
}
