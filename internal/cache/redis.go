package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tandemapp/tandem-server/internal/config"
	"github.com/tandemapp/tandem-server/internal/db"
)

// TTL applied to every cached counter; refreshed on access so hot couples
// stay cached and idle ones age out.
const counterTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForDeckTotal generates the Redis key caching a deck's item count.
func (c *RedisCache) KeyForDeckTotal(scope db.Scope, category string, version int) string {
	return fmt.Sprintf("deck:total:%s:%s:%d", scope, category, version)
}

// KeyForLikeCount generates the Redis key for an activity's like counter.
func (c *RedisCache) KeyForLikeCount(activityID uint64) string {
	return fmt.Sprintf("likes:count:activity:%d", activityID)
}

// GetDeckTotal reads a cached deck total. Returns (0, false, nil) on miss.
func (c *RedisCache) GetDeckTotal(ctx context.Context, scope db.Scope, category string, version int) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForDeckTotal(scope, category, version)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat a corrupt entry as a miss
	}
	return n, true, nil
}

// SetDeckTotal caches a deck total with TTL.
func (c *RedisCache) SetDeckTotal(ctx context.Context, scope db.Scope, category string, version int, total int64) error {
	return c.Client.Set(ctx, c.KeyForDeckTotal(scope, category, version), total, counterTTL).Err()
}

// InvalidateDeckTotal drops the cached total, used on reset.
func (c *RedisCache) InvalidateDeckTotal(ctx context.Context, scope db.Scope, category string, version int) error {
	return c.Client.Del(ctx, c.KeyForDeckTotal(scope, category, version)).Err()
}

// IncrLikeCount bumps an activity's like counter and refreshes its TTL.
func (c *RedisCache) IncrLikeCount(ctx context.Context, activityID uint64) (int64, error) {
	key := c.KeyForLikeCount(activityID)
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = c.Client.Expire(ctx, key, counterTTL).Err()
	return n, nil
}

// GetLikeCount reads an activity's like counter. Returns (0, false, nil) on
// miss so callers can fall back to counting the swipe log.
func (c *RedisCache) GetLikeCount(ctx context.Context, activityID uint64) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForLikeCount(activityID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat a corrupt entry as a miss
	}
	_ = c.Client.Expire(ctx, c.KeyForLikeCount(activityID), counterTTL).Err()
	return n, true, nil
}

// SetLikeCount backfills an activity's like counter from the swipe log, so
// later increments build on the authoritative count.
func (c *RedisCache) SetLikeCount(ctx context.Context, activityID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(activityID), count, counterTTL).Err()
}
