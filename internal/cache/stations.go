package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/config"
	"github.com/evapp/ev-backend/internal/metrics"
	"github.com/evapp/ev-backend/internal/models"
)

const (
	tierLRU   = "lru"
	tierRedis = "redis"

	// StationKeyPrefix prefixes every Redis key written by CachedStationRepository.
	StationKeyPrefix = "ev:stations:coords:"
)

// SnapshotStore is the shared second tier, normally a *RedisClient.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type stationCacheEntry struct {
	Stations  []models.Station
	ExpiresAt time.Time
}

// CachedStationRepository keeps recent candidate lists in memory and, when a
// snapshot store is configured, in Redis. Cache failures are logged and the
// call falls through to the wrapped repository.
type CachedStationRepository struct {
	next      models.StationRepository
	lru       *lru.Cache[string, *stationCacheEntry]
	lruTTL    time.Duration
	snapshots SnapshotStore
	redisTTL  time.Duration
	clock     clock
}

// NewCachedStationRepository wraps next. snapshots may be nil.
func NewCachedStationRepository(next models.StationRepository, cfg *config.CacheConfig, snapshots SnapshotStore) (*CachedStationRepository, error) {
	c := &CachedStationRepository{
		next:     next,
		lruTTL:   cfg.GetStationLRUTTL(),
		redisTTL: cfg.GetStationRedisTTL(),
		clock:    systemClock{},
	}

	if cfg.EnableLRUCache {
		l, err := lru.New[string, *stationCacheEntry](cfg.StationLRUSize)
		if err != nil {
			return nil, fmt.Errorf("creating LRU cache: %w", err)
		}
		c.lru = l
	}
	if cfg.EnableRedisCache && snapshots != nil {
		c.snapshots = snapshots
	}

	return c, nil
}

func stationCacheKey(minPowerKw *float64) string {
	if minPowerKw == nil {
		return StationKeyPrefix + "any"
	}
	return StationKeyPrefix + strconv.FormatFloat(*minPowerKw, 'g', -1, 64)
}

func (c *CachedStationRepository) ListStationsWithCoordinates(ctx context.Context, minPowerKw *float64) ([]models.Station, error) {
	key := stationCacheKey(minPowerKw)

	if stations, ok := c.getLRU(key); ok {
		return stations, nil
	}

	if stations, ok := c.getSnapshot(ctx, key); ok {
		c.addLRU(key, stations)
		return slices.Clone(stations), nil
	}

	stations, err := c.next.ListStationsWithCoordinates(ctx, minPowerKw)
	if err != nil {
		return nil, err
	}

	c.addLRU(key, stations)
	c.putSnapshot(ctx, key, stations)

	return slices.Clone(stations), nil
}

func (c *CachedStationRepository) getLRU(key string) ([]models.Station, bool) {
	if c.lru == nil {
		return nil, false
	}

	entry, ok := c.lru.Get(key)
	if ok && c.clock.Now().Before(entry.ExpiresAt) {
		metrics.IncCacheHit(tierLRU)
		return slices.Clone(entry.Stations), true
	}
	if ok {
		c.lru.Remove(key)
	}
	metrics.IncCacheMiss(tierLRU)
	return nil, false
}

func (c *CachedStationRepository) addLRU(key string, stations []models.Station) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, &stationCacheEntry{
		Stations:  slices.Clone(stations),
		ExpiresAt: c.clock.Now().Add(c.lruTTL),
	})
}

func (c *CachedStationRepository) getSnapshot(ctx context.Context, key string) ([]models.Station, bool) {
	if c.snapshots == nil {
		return nil, false
	}

	data, ok, err := c.snapshots.Get(ctx, key)
	if err != nil {
		metrics.IncCacheError(tierRedis)
		log.Warn().Err(err).Str("key", key).Msg("Reading station snapshot failed")
		return nil, false
	}
	if !ok {
		metrics.IncCacheMiss(tierRedis)
		return nil, false
	}

	var stations []models.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		metrics.IncCacheError(tierRedis)
		log.Warn().Err(err).Str("key", key).Msg("Decoding station snapshot failed")
		return nil, false
	}

	metrics.IncCacheHit(tierRedis)
	log.Debug().Str("key", key).Int("station_count", len(stations)).Msg("Station snapshot hit")
	return stations, true
}

func (c *CachedStationRepository) putSnapshot(ctx context.Context, key string, stations []models.Station) {
	if c.snapshots == nil {
		return
	}

	data, err := json.Marshal(stations)
	if err != nil {
		log.Warn().Err(err).Msg("Encoding station snapshot failed")
		return
	}
	if err := c.snapshots.Set(ctx, key, data, c.redisTTL); err != nil {
		metrics.IncCacheError(tierRedis)
		log.Warn().Err(err).Str("key", key).Msg("Writing station snapshot failed")
	}
}

// Invalidate drops every cached candidate list so the next search reads the
// repository again.
func (c *CachedStationRepository) Invalidate(ctx context.Context) error {
	if c.lru != nil {
		c.lru.Purge()
	}
	if c.snapshots == nil {
		return nil
	}

	n, err := c.snapshots.DeletePrefix(ctx, StationKeyPrefix)
	if err != nil {
		return fmt.Errorf("invalidating station snapshots: %w", err)
	}
	log.Info().Int("deleted_keys", n).Msg("Station cache invalidated")
	return nil
}
