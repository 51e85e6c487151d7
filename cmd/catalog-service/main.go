package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"moviecatalog/cmd/catalog-service/internal/biz"
	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/pkg/observability"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalog-service",
		Short: "Movie catalog HTTP service",
		Long: `Runs the movie catalog HTTP service when invoked without a subcommand.

Operator subcommands:
  token   - Mint a signed bearer token for a subject and role
  inspect - Decode and normalize a spreadsheet locally, print the drafts
  events  - Tail catalog events from Kafka`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			serve()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "configs/catalog-service.yaml", "配置文件路径")

	root.AddCommand(newTokenCmd(), newInspectCmd(), newEventsCmd())
	return root
}

func serve() {
	bootLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// 加载配置
	config, manager, err := conf.Load(configFile, bootLogger)
	if err != nil {
		bootLogger.Fatal("Failed to load config", zap.Error(err))
	}
	defer manager.Close()

	// 初始化日志
	logger, err := initLogger(config.Observability)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Catalog Service",
		zap.String("version", config.Observability.ServiceVersion),
		zap.String("environment", config.Observability.Environment),
		zap.String("config_mode", string(manager.GetMode())),
	)

	manager.OnChange(func() {
		logger.Info("Configuration changed; restart to apply")
	})

	// 初始化追踪
	tracingCfg := observability.DefaultTracingConfig(config.Observability.ServiceName)
	tracingCfg.ServiceVersion = config.Observability.ServiceVersion
	tracingCfg.Environment = config.Observability.Environment
	tracingCfg.SamplingRate = config.Observability.SamplingRate
	tracingCfg.Enabled = config.Observability.EnableTrace
	if config.Observability.OTELEndpoint != "" {
		tracingCfg.Endpoint = config.Observability.OTELEndpoint
	}
	shutdownTracing, err := observability.InitTracing(context.Background(), tracingCfg)
	if err != nil {
		logger.Fatal("Failed to init tracing", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)

	// 初始化应用（通过 Wire 生成）
	httpServer, cleanup, err := initApp(config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize app", zap.Error(err))
	}
	defer cleanup()

	httpAddr := fmt.Sprintf(":%d", config.Server.HTTPPort)
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      httpServer.Engine(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	// 启动 Prometheus metrics 服务器
	metricsAddr := fmt.Sprintf(":%d", config.Server.MetricsPort)
	metricsSrv := &http.Server{
		Addr:    metricsAddr,
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", httpAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Metrics server starting", zap.String("addr", metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Metrics server failed", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Tracer shutdown failed", zap.Error(err))
	}

	logger.Info("Servers exited")
}

// initLogger 初始化日志
func initLogger(cfg conf.ObservabilityConfig) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.LogFormat == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	zapConfig.InitialFields = map[string]interface{}{
		"service":     cfg.ServiceName,
		"version":     cfg.ServiceVersion,
		"environment": cfg.Environment,
	}

	return zapConfig.Build()
}

// newNormalizerOptions 从配置构建规范化选项
func newNormalizerOptions(cfg *conf.Config) biz.NormalizerOptions {
	return biz.NormalizerOptions{
		TrimSpace:   cfg.Ingest.TrimSpace,
		AcceptLists: cfg.Ingest.AcceptLists,
	}
}
