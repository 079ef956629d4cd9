package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is an explicit cache object handed to the services that need one. Every backend is
// best-effort: a miss or a backend failure reads as "not cached".
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
	Flush(ctx context.Context)
}

const (
	PrefixScheduleAnalysis   = "schedule_analysis"
	PrefixScheduleGeneration = "schedule_generation"
)

// GenerateKey joins the prefix and parts with ':', e.g. schedule_analysis:tenant_a:proj_1.
func GenerateKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}
