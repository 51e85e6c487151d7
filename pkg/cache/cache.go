package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache 缓存接口
type Cache interface {
	// GetObject 获取对象，键不存在时返回 ErrMiss
	GetObject(ctx context.Context, key string, dest interface{}) error

	// SetObject 设置对象
	SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// GetInt 获取计数器值，键不存在时返回 0
	GetInt(ctx context.Context, key string) (int64, error)

	// Incr 自增
	Incr(ctx context.Context, key string) (int64, error)

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error
}

// CacheOptions 缓存选项
type CacheOptions struct {
	// 默认过期时间
	DefaultTTL time.Duration

	// 键前缀
	KeyPrefix string

	// 序列化方式
	Serializer Serializer
}

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}
