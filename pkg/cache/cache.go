package cache

import (
	"context"
	"errors"
	"time"
)

// ErrExists Add 时键已存在且未过期
var ErrExists = errors.New("cache: key already exists")

// Cache 本地缓存接口
type Cache interface {
	// Add 仅在键不存在时写入，否则返回 ErrExists
	Add(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error
}

// LocalConfig 本地缓存配置
type LocalConfig struct {
	// 默认过期时间
	DefaultExpiration time.Duration `json:"default_expiration" env:"LOCAL_CACHE_DEFAULT_EXPIRATION" default:"5m"`

	// 清理间隔
	CleanupInterval time.Duration `json:"cleanup_interval" env:"LOCAL_CACHE_CLEANUP_INTERVAL" default:"10m"`
}
