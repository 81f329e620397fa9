package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"threads/internal/middleware"
	"threads/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GenerationKey holds the counter every cached view key is scoped by.
// Bumping it orphans all previously cached views at once.
const GenerationKey = "cache:views:gen"

// DefaultTTL bounds how long an orphaned view lingers in Redis.
const DefaultTTL = time.Minute

// Cache is a read-through view cache. A nil client disables it.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a Cache over rdb. A non-positive ttl uses DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Client returns the underlying Redis client, possibly nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// FeedKey names a cached feed page.
func FeedKey(page, size int) string {
	return fmt.Sprintf("feed:%d:%d", page, size)
}

// ThreadKey names a cached thread detail view.
func ThreadKey(id string) string {
	return "thread:" + id
}

// Generation returns the current view generation, 0 when unset.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	if c.Client() == nil {
		return 0, nil
	}
	gen, err := c.rdb.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Bump advances the view generation.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if c.Client() == nil {
		return 0, nil
	}
	return c.rdb.Incr(ctx, GenerationKey).Result()
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c.Client() == nil {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c.Client() == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Aside serves dest from the current generation's copy of key, or calls fetch
// to fill dest and stores the result. Redis failures degrade to a plain fetch.
func (c *Cache) Aside(ctx context.Context, key string, dest any, fetch func() error) error {
	if c.Client() == nil {
		return fetch()
	}

	gen, err := c.Generation(ctx)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache generation lookup failed", slog.String("error", err.Error()))
		return fetch()
	}
	scoped := fmt.Sprintf("views:%d:%s", gen, key)

	found, err := c.GetJSON(ctx, scoped, dest)
	switch {
	case err != nil:
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", scoped), slog.String("error", err.Error()))
	case found:
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	// best effort
	if err := c.SetJSON(ctx, scoped, dest); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", scoped), slog.String("error", err.Error()))
	}
	return nil
}
