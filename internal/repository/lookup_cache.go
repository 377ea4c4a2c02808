package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/upeu-dev/vinculacion-api/pkg/errors"
)

// LookupCache stores catalog lookup payloads in Redis.
type LookupCache struct {
	client *redis.Client
}

// NewLookupCache constructs the cache repository.
func NewLookupCache(client *redis.Client) *LookupCache {
	return &LookupCache{client: client}
}

// Get unmarshals a cached payload into dest. A missing key is reported as
// appErrors.ErrCacheMiss.
func (c *LookupCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// Set stores the value as JSON under the key.
func (c *LookupCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
