package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// In-process LRU of candidate station lists
	StationLRUSize       int
	StationLRUTTLMinutes int

	// Redis snapshot of candidate station lists
	StationRedisTTLMinutes int
	RedisPoolSize          int
	RedisDialTimeoutMs     int
	RedisReadTimeoutMs     int

	EnableLRUCache   bool
	EnableRedisCache bool
}

const (
	defaultStationLRUSize       = 64
	defaultStationLRUTTLMinutes = 10
	defaultStationRedisTTL      = 60
	defaultRedisPoolSize        = 16
	defaultRedisDialTimeoutMs   = 2000
	defaultRedisReadTimeoutMs   = 1000
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		StationLRUSize:         getEnvInt("CACHE_STATION_LRU_SIZE", defaultStationLRUSize),
		StationLRUTTLMinutes:   getEnvInt("CACHE_STATION_TTL_MINUTES", defaultStationLRUTTLMinutes),
		StationRedisTTLMinutes: getEnvInt("CACHE_REDIS_TTL_MINUTES", defaultStationRedisTTL),
		RedisPoolSize:          getEnvInt("CACHE_REDIS_POOL_SIZE", defaultRedisPoolSize),
		RedisDialTimeoutMs:     getEnvInt("CACHE_REDIS_DIAL_TIMEOUT_MS", defaultRedisDialTimeoutMs),
		RedisReadTimeoutMs:     getEnvInt("CACHE_REDIS_READ_TIMEOUT_MS", defaultRedisReadTimeoutMs),
		EnableLRUCache:         getEnvBool("CACHE_ENABLE_LRU", true),
		EnableRedisCache:       getEnvBool("CACHE_ENABLE_REDIS", true),
	}

	log.Debug().
		Int("StationLRUSize", config.StationLRUSize).
		Int("StationLRUTTLMinutes", config.StationLRUTTLMinutes).
		Int("StationRedisTTLMinutes", config.StationRedisTTLMinutes).
		Int("RedisPoolSize", config.RedisPoolSize).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableRedisCache", config.EnableRedisCache).
		Msg("Cache configuration loaded")

	return config
}

func (c *CacheConfig) GetStationLRUTTL() time.Duration {
	return time.Duration(c.StationLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetStationRedisTTL() time.Duration {
	return time.Duration(c.StationRedisTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetRedisDialTimeout() time.Duration {
	return time.Duration(c.RedisDialTimeoutMs) * time.Millisecond
}

func (c *CacheConfig) GetRedisReadTimeout() time.Duration {
	return time.Duration(c.RedisReadTimeoutMs) * time.Millisecond
}
