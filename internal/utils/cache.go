package utils

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

type cacheEntry struct {
	data      any
	expiresAt time.Time
}

// Cache is a bounded LRU whose entries also expire after a TTL.
type Cache struct {
	lru *lru.Cache[string, cacheEntry]
}

// NewCache creates a cache holding at most size entries.
func NewCache(size int) *Cache {
	l, err := lru.New[string, cacheEntry](size)
	if err != nil {
		// only fails for size <= 0
		log.Fatal().Err(err).Int("size", size).Msg("Failed to create LRU cache")
	}
	return &Cache{lru: l}
}

func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.lru.Add(key, cacheEntry{data: data, expiresAt: time.Now().Add(ttl)})
}

// Get returns nil when the key is missing or expired.
func (c *Cache) Get(key string) any {
	val, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.expiresAt) {
		c.lru.Remove(key)
		return nil
	}
	return val.data
}

func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

// DeletePrefix drops every key starting with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}
