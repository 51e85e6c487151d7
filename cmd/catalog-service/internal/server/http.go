package server

import (
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"moviecatalog/cmd/catalog-service/internal/biz"
	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/cmd/catalog-service/internal/domain"
	"moviecatalog/cmd/catalog-service/internal/service"
	"moviecatalog/pkg/auth"
	apierrors "moviecatalog/pkg/errors"
	"moviecatalog/pkg/health"
	"moviecatalog/pkg/middleware"
	"moviecatalog/pkg/monitoring"
	"moviecatalog/pkg/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProviderSet 服务器层提供者集合
var ProviderSet = wire.NewSet(NewHTTPServer)

// ArchiveHeader carries the object key of the archived upload.
const ArchiveHeader = "X-Import-Archive"

var adminOnly = auth.NewRoleSet(auth.RoleAdmin)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine  *gin.Engine
	service *service.CatalogService
	jwt     *auth.JWTManager
	health  *health.HealthChecker
	redis   *redis.Client
	config  *conf.Config
	logger  *zap.Logger
}

// NewHTTPServer 创建 HTTP 服务器. A nil redis client disables the upload
// rate limit.
func NewHTTPServer(
	srv *service.CatalogService,
	checker *health.HealthChecker,
	rdb *redis.Client,
	cfg *conf.Config,
	logger *zap.Logger,
) *HTTPServer {
	engine := gin.New()

	s := &HTTPServer{
		engine:  engine,
		service: srv,
		jwt:     auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry),
		health:  checker,
		redis:   rdb,
		config:  cfg,
		logger:  logger,
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// Engine 返回 gin 引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// registerMiddlewares 注册中间件
func (s *HTTPServer) registerMiddlewares() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.engine.Use(monitoring.GinMiddleware(s.config.Observability.ServiceName))
	s.engine.Use(observability.GinMiddleware("catalog-service/http"))
	s.engine.Use(s.errorHandler())
}

// requestLogger 请求日志中间件
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", observability.TraceID(c.Request.Context())),
		)
	}
}

// errorHandler 错误处理中间件
func (s *HTTPServer) errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		fields := []zap.Field{
			zap.String("path", c.Request.URL.Path),
			zap.String("reason", apierrors.Reason(err)),
			zap.Error(err),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("Request error", fields...)
		} else {
			s.logger.Debug("Request rejected", fields...)
		}
	}
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	s.engine.GET("/health", s.health.LivenessHandler())
	s.engine.GET("/ready", s.health.ReadinessHandler())

	movies := s.engine.Group("/movies", middleware.AuthMiddleware(s.jwt))
	{
		movies.POST("", middleware.RequireRole(adminOnly), s.createMovie)
		movies.POST("/bulk-upload",
			middleware.RequireRole(adminOnly),
			middleware.RateLimiter(middleware.RateLimiterConfig{
				RedisClient: s.redis,
				MaxRequests: s.config.Ingest.RateLimit,
				Window:      s.config.Ingest.RateWindow,
				KeyPrefix:   "catalog:rate_limit",
				Logger:      s.logger,
			}),
			s.bulkUpload,
		)
		movies.GET("", s.listMovies)
	}
}

// createMovie 创建单条电影
func (s *HTTPServer) createMovie(c *gin.Context) {
	var req service.CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, apierrors.NewValidationError("malformed JSON body").WithCause(err))
		return
	}

	movie, err := s.service.CreateMovie(c.Request.Context(), &req, actor(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, movie)
}

// bulkUpload 批量导入
func (s *HTTPServer) bulkUpload(c *gin.Context) {
	if limit := s.config.Ingest.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			middleware.Abort(c, apierrors.ErrPayloadTooLarge.WithCause(err))
			return
		}
		middleware.Abort(c, apierrors.NewValidationError("file is required").WithCause(err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Abort(c, apierrors.NewValidationError("file is unreadable").WithCause(err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		middleware.Abort(c, apierrors.NewValidationError("file is unreadable").WithCause(err))
		return
	}

	result, err := s.service.ImportMovies(c.Request.Context(), domain.Upload{Filename: fh.Filename, Data: data}, actor(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	if result.ArchiveKey != "" {
		c.Header(ArchiveHeader, result.ArchiveKey)
	}
	c.JSON(http.StatusOK, result.Movies)
}

// listMovies 查询电影列表
func (s *HTTPServer) listMovies(c *gin.Context) {
	page, err := s.service.ListMovies(c.Request.Context(), biz.ListParams{
		Genre:  c.Query("genre"),
		Rating: c.Query("rating"),
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func actor(c *gin.Context) string {
	id, _ := middleware.GetIdentity(c)
	return id.Subject
}
