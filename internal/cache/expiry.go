package cache

import "time"

// Lifetimes applied when a caller passes a zero expiration.
const (
	ExpiryDefaultInMemory = 30 * time.Minute
	ExpiryDefaultRedis    = 5 * time.Minute

	// ExpiryScheduleAnalysis is used when schedule.analysis_cache_ttl is unset.
	ExpiryScheduleAnalysis = 10 * time.Minute
)
