package cache

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/projectledger/projectledger/internal/logger"
	redisClient "github.com/projectledger/projectledger/internal/redis"
	"github.com/redis/go-redis/v9"
)

const (
	// scanBatch is the COUNT hint for SCAN and the size of each UNLINK batch.
	scanBatch = 200

	deleteAttempts   = 3
	deleteRetryDelay = 100 * time.Millisecond
)

// RedisCache stores JSON-encoded values in Redis. Values read back are strings; use
// UnmarshalCacheValue to decode them.
type RedisCache struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewRedisCache(client *redisClient.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{rdb: client.GetClient(), log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		c.log.Warnw("cache read failed", "key", key, "error", err)
		return nil, false
	}
	return raw, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	encoded, err := marshalCacheValue(value)
	if err != nil {
		c.log.Errorw("cache value not encodable", "key", key, "error", err)
		return
	}
	if expiration <= 0 {
		expiration = ExpiryDefaultRedis
	}
	if err := c.rdb.Set(ctx, key, encoded, expiration).Err(); err != nil {
		c.log.Warnw("cache write failed", "key", key, "error", err)
	}
}

// Delete is used for invalidation, so a stale entry is worse than a slow call: it retries a few
// times with a fixed delay before giving up.
func (c *RedisCache) Delete(ctx context.Context, key string) {
	// invalidation must outlive a cancelled request
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(deleteRetryDelay), deleteAttempts-1),
		delCtx,
	)

	err := backoff.Retry(func() error {
		return c.rdb.Del(delCtx, key).Err()
	}, policy)
	if err != nil {
		c.log.Errorw("cache invalidation failed, entry will live until expiry", "key", key, "error", err)
	}
}

func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			c.log.Errorw("cache prefix scan failed", "prefix", prefix, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Unlink(ctx, keys...).Err(); err != nil {
				c.log.Errorw("cache prefix unlink failed", "prefix", prefix, "error", err)
				return
			}
			removed += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.log.Debugw("cache prefix invalidated", "prefix", prefix, "keys", removed)
}

func (c *RedisCache) Flush(ctx context.Context) {
	if err := c.rdb.FlushDB(ctx).Err(); err != nil {
		c.log.Errorw("cache flush failed", "error", err)
	}
}
