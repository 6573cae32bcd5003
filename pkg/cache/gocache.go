package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// goCacheWrapper go-cache包装器
type goCacheWrapper struct {
	cache *gocache.Cache
}

// NewGoCache 创建基于go-cache的本地缓存
func NewGoCache(config LocalConfig) Cache {
	if config.DefaultExpiration <= 0 {
		config.DefaultExpiration = gocache.NoExpiration
	}
	return &goCacheWrapper{
		cache: gocache.New(config.DefaultExpiration, config.CleanupInterval),
	}
}

// Add 检查与写入在 go-cache 内部同一把锁下完成
func (gc *goCacheWrapper) Add(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.DefaultExpiration
	}
	if err := gc.cache.Add(key, value, expiration); err != nil {
		return ErrExists
	}
	return nil
}

// Delete 删除缓存
func (gc *goCacheWrapper) Delete(_ context.Context, key string) error {
	gc.cache.Delete(key)
	return nil
}
