package conf

import (
	"errors"
	"time"

	"moviecatalog/pkg/config"

	"go.uber.org/zap"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	Minio         MinioConfig         `mapstructure:"minio"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	MetricsPort     int           `mapstructure:"metrics_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpiry time.Duration `mapstructure:"jwt_expiry"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig Redis 配置，Addr 为空时禁用列表缓存和上传限流
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ListCacheTTL time.Duration `mapstructure:"list_cache_ttl"`
}

// IngestConfig 批量导入配置
type IngestConfig struct {
	ChunkSize      int           `mapstructure:"chunk_size"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateWindow     time.Duration `mapstructure:"rate_window"`
	TrimSpace      bool          `mapstructure:"trim_space"`
	AcceptLists    bool          `mapstructure:"accept_lists"`
}

// MinioConfig 导入归档配置，Endpoint 为空时禁用
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// Timeout 单次归档（含重试）的总时长上限
	Timeout time.Duration `mapstructure:"timeout"`
}

// KafkaConfig 事件配置，Brokers 为空时禁用
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	OTELEndpoint   string  `mapstructure:"otel_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
	EnableTrace    bool    `mapstructure:"enable_trace"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	LogLevel       string  `mapstructure:"log_level"`
	LogFormat      string  `mapstructure:"log_format"`
}

// ErrMissingSecret JWT_SECRET 未配置
var ErrMissingSecret = errors.New("auth.jwt_secret (JWT_SECRET) is required")

// ErrMissingDatabase DATABASE_URL 未配置
var ErrMissingDatabase = errors.New("database.url (DATABASE_URL) is required")

var defaults = map[string]interface{}{
	"server.http_port":        3000,
	"server.metrics_port":     9090,
	"server.shutdown_timeout": 15 * time.Second,
	"server.read_timeout":     30 * time.Second,
	"server.write_timeout":    60 * time.Second,

	"database.max_open_conns":    50,
	"database.max_idle_conns":    10,
	"database.conn_max_lifetime": time.Hour,
	"database.log_level":         "warn",
	"database.auto_migrate":      true,

	"redis.pool_size":      10,
	"redis.list_cache_ttl": time.Minute,

	"ingest.chunk_size":       500,
	"ingest.max_upload_bytes": 32 << 20,
	"ingest.rate_limit":       10,
	"ingest.rate_window":      time.Minute,

	"minio.bucket":  "movie-imports",
	"minio.timeout": 10 * time.Second,
	"kafka.topic":  "catalog.events",

	"observability.service_name":    "catalog-service",
	"observability.service_version": "1.0.0",
	"observability.environment":     "development",
	"observability.sampling_rate":   1.0,
	"observability.log_level":       "info",
	"observability.log_format":      "json",
}

// 环境变量覆盖敏感配置
var envBindings = map[string][]string{
	"auth.jwt_secret":             {"JWT_SECRET"},
	"database.url":                {"DATABASE_URL"},
	"server.http_port":            {"PORT"},
	"redis.addr":                  {"REDIS_ADDR"},
	"redis.password":              {"REDIS_PASSWORD"},
	"minio.endpoint":              {"MINIO_ENDPOINT"},
	"minio.access_key":            {"MINIO_ACCESS_KEY"},
	"minio.secret_key":            {"MINIO_SECRET_KEY"},
	"kafka.brokers":               {"KAFKA_BROKERS"},
	"observability.otel_endpoint": {"OTEL_ENDPOINT"},
}

// Load 加载配置. A missing file is not an error; defaults and the
// environment are enough to run.
func Load(configPath string, logger *zap.Logger) (*Config, *config.Manager, error) {
	m := config.NewManager(logger)
	for key, value := range defaults {
		m.SetDefault(key, value)
	}
	for key, envs := range envBindings {
		if err := m.BindEnv(key, envs...); err != nil {
			return nil, nil, err
		}
	}

	if err := m.LoadConfig(configPath, "catalog-service"); err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := m.Unmarshal(&cfg); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return &cfg, m, nil
}

// Validate 校验必需配置
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Database.URL == "" {
		return ErrMissingDatabase
	}
	return nil
}
