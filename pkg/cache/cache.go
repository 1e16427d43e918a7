package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache 以JSON存储的键值缓存
type Cache interface {
	// Get 未命中返回 false
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache Redis缓存
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache 创建Redis连接并测试
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 3 * time.Second,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	log.Printf("[cache] Redis连接成功: %s", addr)
	return &RedisCache{rdb: rdb}, nil
}

// Get 获取缓存
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("解析缓存 %s 失败: %w", key, err)
	}
	return true, nil
}

// Set 设置缓存
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, expiration).Err()
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close 关闭Redis连接
// Ping 健康检查
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache 进程内缓存，未配置Redis时使用
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{data: data}
	if expiration > 0 {
		entry.expires = c.now().Add(expiration)
	}
	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
	return nil
}
