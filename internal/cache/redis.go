package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

type RedisOption func(*redis.Options)

func WithPoolSize(n int) RedisOption {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

// RedisClient stores opaque snapshots in Redis.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient connects to addr and pings it before returning.
func NewRedisClient(ctx context.Context, addr string, opts ...RedisOption) (*RedisClient, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     16,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisClient{rdb: rdb}, nil
}

// Get returns the value stored at key. The boolean is false when the key does
// not exist.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisClient) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix and returns how many
// were deleted.
func (c *RedisClient) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := c.rdb.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis DEL: %w", err)
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis SCAN %s*: %w", prefix, err)
	}
	if len(batch) > 0 {
		n, err := c.rdb.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis DEL: %w", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
