package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryCache keeps the stored pointers as-is. Callers must treat values read from it as
// read-only.
type InMemoryCache struct {
	cache *gocache.Cache
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		cache: gocache.New(ExpiryDefaultInMemory, 2*ExpiryDefaultInMemory),
	}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration == 0 {
		expiration = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

func (c *InMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}

type noopCache struct{}

// NewNoopCache returns a cache that never stores anything.
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(context.Context, string) (interface{}, bool) { return nil, false }

func (noopCache) Set(context.Context, string, interface{}, time.Duration) {}

func (noopCache) Delete(context.Context, string) {}

func (noopCache) DeleteByPrefix(context.Context, string) {}

func (noopCache) Flush(context.Context) {}
