package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PageCache is a whole-response cache with a fixed TTL. Entries are never
// invalidated by writes; they expire on their own.
type PageCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPageCache returns a cache storing entries under prefix for ttl.
// A nil client or a non-positive ttl disables caching.
func NewPageCache(client *redis.Client, prefix string, ttl time.Duration) *PageCache {
	return &PageCache{client: client, prefix: prefix, ttl: ttl}
}

// Enabled reports whether lookups can hit Redis.
func (p *PageCache) Enabled() bool {
	return p != nil && p.client != nil && p.ttl > 0
}

// TTL returns the configured entry lifetime.
func (p *PageCache) TTL() time.Duration {
	return p.ttl
}

// Key builds an entry key from request parameters, in order.
func (p *PageCache) Key(params ...string) string {
	escaped := make([]string, len(params))
	for i, v := range params {
		escaped[i] = url.QueryEscape(v)
	}
	return "page:" + p.prefix + ":" + strings.Join(escaped, ":")
}

// Fetch loads key into dest. On a miss it calls fill, which must populate
// dest, and stores the result. Redis errors fall through to fill.
func (p *PageCache) Fetch(ctx context.Context, key string, dest any, fill func() error) error {
	if !p.Enabled() {
		return fill()
	}

	ctx, span := observability.StartRedisSpan(ctx, "page_cache.fetch")
	defer span.End()

	found, err := GetJSON(ctx, p.client, key, dest)
	switch {
	case err != nil:
		observability.PageCacheLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "page cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	case found:
		observability.PageCacheLookups.WithLabelValues("hit").Inc()
		return nil
	default:
		observability.PageCacheLookups.WithLabelValues("miss").Inc()
	}

	if err := fill(); err != nil {
		return err
	}
	if err := SetJSON(ctx, p.client, key, dest, p.ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "page cache write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// GetJSON reads key and unmarshals it into dest.
// Returns (true, nil) if found, (false, nil) if the key does not exist.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}
