package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("缓存未命中")

// Cache 缓存接口
// 用于缓存股票列表和K线响应，降低对外部接口的请求压力
type Cache interface {
	// Get 读取缓存并反序列化到dest
	Get(ctx context.Context, key string, dest interface{}) error

	// Set 写入缓存，expiration为0表示不过期
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Delete 删除缓存项
	Delete(ctx context.Context, key string) error

	// Close 释放缓存资源
	Close() error
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache 进程内缓存实现
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem)}
}

// Get 读取缓存并反序列化到dest
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return ErrCacheMiss
	}

	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return ErrCacheMiss
	}

	return json.Unmarshal(item.data, dest)
}

// Set 写入缓存
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	c.items[key] = memoryItem{data: data, expiresAt: expiresAt}
	c.mu.Unlock()

	return nil
}

// Delete 删除缓存项
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Close 释放缓存资源
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.items = make(map[string]memoryItem)
	c.mu.Unlock()
	return nil
}
