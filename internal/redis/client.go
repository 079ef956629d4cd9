package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/projectledger/projectledger/internal/config"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Client owns the go-redis connection pool used by the cache.
type Client struct {
	rdb *redis.Client
	log *logger.Logger
}

// Options maps the redis config section onto go-redis options.
func Options(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		PoolSize:     cfg.PoolSize,
	}

	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewClient connects to redis, retrying the initial PING briefly so the scanner tolerates a
// cache that starts a moment after it.
func NewClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	rdb := redis.NewClient(Options(cfg.Redis))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnw("redis not reachable yet", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx))
	if err != nil {
		_ = rdb.Close()
		return nil, ierr.WithError(err).
			WithHintf("Redis at %s:%d is unreachable", cfg.Redis.Host, cfg.Redis.Port).
			WithReportableDetails(map[string]interface{}{
				"db":       cfg.Redis.DB,
				"attempts": attempt,
			}).
			Mark(ierr.ErrSystem)
	}

	log.Infow("connected to redis", "host", cfg.Redis.Host, "db", cfg.Redis.DB, "attempts", attempt)
	return &Client{rdb: rdb, log: log}, nil
}

// GetClient exposes the go-redis client to the cache backend.
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
