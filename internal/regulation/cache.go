package regulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"tutela/internal/domain"
	platformredis "tutela/internal/platform/redis"
)

// CheckCache memoizes subject-rights evaluations. Processing evaluations are
// never cached: their outcome changes the moment a consent is registered or
// withdrawn, and callers expect a re-run to see that immediately.
type CheckCache interface {
	Get(ctx context.Context, key string) (*domain.ComplianceCheck, bool, error)
	Set(ctx context.Context, key string, check *domain.ComplianceCheck) error
}

// RedisCheckCache stores serialized checks in Redis with a TTL.
type RedisCheckCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

// NewRedisCheckCache constructs a cache. ttl bounds how stale a cached
// subject-rights result may be.
func NewRedisCheckCache(client *platformredis.Client, ttl time.Duration) *RedisCheckCache {
	return &RedisCheckCache{client: client, ttl: ttl}
}

func (c *RedisCheckCache) key(key string) string {
	return "tutela:check:" + key
}

func (c *RedisCheckCache) Get(ctx context.Context, key string) (*domain.ComplianceCheck, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var check domain.ComplianceCheck
	if err := json.Unmarshal(raw, &check); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		return nil, false, nil
	}
	return &check, true, nil
}

func (c *RedisCheckCache) Set(ctx context.Context, key string, check *domain.ComplianceCheck) error {
	raw, err := json.Marshal(check)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
