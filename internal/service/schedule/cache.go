package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sitemaster/pkg/logger"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores rendered views under versioned keys. Bumping the version orphans every
// earlier key, which then expires by TTL.
type Cache interface {
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const versionKey = "schedule:version"

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisCache) Bump(ctx context.Context) (int64, error) {
	return c.rdb.Incr(ctx, versionKey).Result()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// viewKey includes today's date because the empty-input window is centred on it.
func viewKey(version int64, mode, projectID string, today time.Time) string {
	return fmt.Sprintf("schedule:view:v%d:%s:%s:%s", version, mode, projectID, today.Format("2006-01-02"))
}

// Invalidator bumps the cache version. Writers hold one without depending on the view service.
type Invalidator struct {
	cache  Cache
	logger *zap.Logger
}

func NewInvalidator(c Cache, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{cache: c, logger: logger}
}

// Invalidate failures are logged; stale views then live until their TTL.
func (i *Invalidator) Invalidate(ctx context.Context) {
	version, err := i.cache.Bump(ctx)
	if err != nil {
		logger.WithTrace(ctx, i.logger).Warn("Schedule cache invalidation failed", zap.Error(err))
		return
	}
	i.logger.Debug("Schedule cache invalidated", zap.Int64("version", version))
}
