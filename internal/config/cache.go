package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is skipped.
// Methods lists the HTTP methods to cache; POST must stay out of it so the
// data route always reaches its handler.  KeyStrategy
// selects which parts of the request form the cache key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  The cache is off unless
// CACHE_ENABLED is set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", false),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "greeting"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 64*1024),
	}
}

// parseMethods turns a comma separated list into an upper-cased method set.
func parseMethods(s string) map[string]bool {
	methods := make(map[string]bool)
	for _, m := range strings.Split(strings.ToUpper(s), ",") {
		if m = strings.TrimSpace(m); m != "" {
			methods[m] = true
		}
	}
	return methods
}
