package cache

import (
	"context"
	"testing"

	"github.com/projectledger/projectledger/internal/config"
	"github.com/projectledger/projectledger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	c.Set(ctx, GenerateKey(PrefixScheduleAnalysis, "t1", "p1"), &cachedThing{Name: "a"}, 0)
	c.Set(ctx, GenerateKey(PrefixScheduleAnalysis, "t1", "p2"), &cachedThing{Name: "b"}, 0)
	c.Set(ctx, "other:key", &cachedThing{Name: "c"}, 0)

	v, ok := c.Get(ctx, "schedule_analysis:t1:p1")
	require.True(t, ok)
	thing, ok := UnmarshalCacheValue[cachedThing](v)
	require.True(t, ok)
	assert.Equal(t, "a", thing.Name)

	c.Delete(ctx, "schedule_analysis:t1:p1")
	_, ok = c.Get(ctx, "schedule_analysis:t1:p1")
	assert.False(t, ok)

	c.DeleteByPrefix(ctx, GenerateKey(PrefixScheduleAnalysis, "t1"))
	_, ok = c.Get(ctx, "schedule_analysis:t1:p2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "other:key")
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, "other:key")
	assert.False(t, ok)
}

func TestUnmarshalCacheValueFromJSON(t *testing.T) {
	encoded, err := marshalCacheValue(&cachedThing{Name: "x", Count: 3})
	require.NoError(t, err)

	thing, ok := UnmarshalCacheValue[cachedThing](encoded)
	require.True(t, ok)
	assert.Equal(t, cachedThing{Name: "x", Count: 3}, *thing)

	_, ok = UnmarshalCacheValue[cachedThing](nil)
	assert.False(t, ok)
	_, ok = UnmarshalCacheValue[cachedThing](42)
	assert.False(t, ok)
	_, ok = UnmarshalCacheValue[cachedThing]("not json")
	assert.False(t, ok)
}

func TestInitialize(t *testing.T) {
	log := logger.NewNopLogger()
	cfg := config.GetDefaultConfig()

	_, isMem := Initialize(cfg, log, nil).(*InMemoryCache)
	assert.True(t, isMem)

	cfg.Cache.Type = string(CacheTypeRedis)
	_, isMem = Initialize(cfg, log, nil).(*InMemoryCache)
	assert.True(t, isMem, "redis without a client falls back to in-memory")

	cfg.Cache.Enabled = false
	c := Initialize(cfg, log, nil)
	c.Set(context.Background(), "k", "v", 0)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}
