package utils

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem struct {
	data      interface{}
	expiresAt time.Time
}

// Cache is a size-bounded LRU whose entries also expire after a TTL.
type Cache struct {
	lruCache *lru.Cache[string, cacheItem]
	mu       sync.Mutex
	now      func() time.Time
}

func NewCache(size int) *Cache {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		log.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &Cache{lruCache: l, now: time.Now}
}

func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lruCache.Add(key, cacheItem{data: data, expiresAt: c.now().Add(ttl)})
}

// Get returns nil for missing or expired keys.
func (c *Cache) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.data
}

func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.lruCache.Remove(k)
	}
}
