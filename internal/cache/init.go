package cache

import (
	"github.com/projectledger/projectledger/internal/config"
	"github.com/projectledger/projectledger/internal/logger"
	redisClient "github.com/projectledger/projectledger/internal/redis"
)

// CacheType represents the type of cache to use
type CacheType string

const (
	// CacheTypeInMemory represents an in-memory cache
	CacheTypeInMemory CacheType = "inmemory"

	// CacheTypeRedis represents a Redis-backed cache
	CacheTypeRedis CacheType = "redis"
)

// Initialize builds the configured cache. A disabled cache, or a redis cache without a client,
// degrades to the no-op and in-memory backends respectively.
func Initialize(cfg *config.Configuration, log *logger.Logger, client *redisClient.Client) Cache {
	if !cfg.Cache.Enabled {
		log.Infow("cache disabled")
		return NewNoopCache()
	}

	switch CacheType(cfg.Cache.Type) {
	case CacheTypeRedis:
		if client != nil {
			log.Infow("cache initialized", "type", CacheTypeRedis)
			return NewRedisCache(client, log)
		}
		log.Warnw("redis cache requested without a redis client, falling back to in-memory")
	}

	log.Infow("cache initialized", "type", CacheTypeInMemory)
	return NewInMemoryCache()
}
