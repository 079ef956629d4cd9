package cache

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UnmarshalCacheValue attempts to convert a cache value to the specified type.
// It handles both in-memory cache (which stores actual objects) and Redis cache (which stores JSON strings).
// Returns the typed value and true if successful, nil and false otherwise.
func UnmarshalCacheValue[T any](value interface{}) (*T, bool) {
	if value == nil {
		return nil, false
	}

	// Direct type assertion for the in-memory cache
	if typed, ok := value.(*T); ok {
		return typed, true
	}

	// JSON string for the Redis cache
	if str, ok := value.(string); ok {
		var result T
		if err := json.UnmarshalFromString(str, &result); err == nil {
			return &result, true
		}
	}

	return nil, false
}

// marshalCacheValue encodes non-string values as JSON for string-only backends.
func marshalCacheValue(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return json.MarshalToString(value)
}
