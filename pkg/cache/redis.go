package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is the distributed KV cache backend: native TTL, fire-and-
// forget-safe Set (idempotent), and a Get that tolerates transient errors by
// returning "absent" rather than propagating, per spec.md §4.B.
type RedisBackend struct {
	client     *redis.Client
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisBackend wraps an existing go-redis client. The caller owns
// connection configuration (addr, auth, pool size); this backend only
// issues GET/SET/DEL/FLUSHDB with TTLs.
func NewRedisBackend(client *redis.Client, defaultTTL time.Duration) *RedisBackend {
	return &RedisBackend{client: client, defaultTTL: defaultTTL}
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			r.misses.Add(1)
			return nil, false, nil
		}
		// Transient errors tolerated: log and report absent rather than fail
		// the calling strategy, per spec.md §4.B.
		slog.Warn("redis cache get failed, treating as absent", "key", key, "error", err)
		r.misses.Add(1)
		return nil, false, nil
	}
	r.hits.Add(1)
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl int64) error {
	d := r.defaultTTL
	if ttl > 0 {
		d = time.Duration(ttl) * time.Second
	}
	if err := r.client.Set(ctx, key, value, d).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *RedisBackend) Clear(ctx context.Context) error {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("redis flush: %w", err)
	}
	return nil
}

func (r *RedisBackend) Stats() Stats {
	hits := r.hits.Load()
	misses := r.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	size := -1 // Unknown without a DBSIZE round-trip; callers treat -1 as "not tracked".
	return Stats{Size: size, Hits: hits, Misses: misses, HitRate: rate}
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// Ping verifies connectivity at construction time so the cache.Manager's
// downgrade policy can detect an unreachable Redis instance immediately
// instead of on the first cache miss.
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
