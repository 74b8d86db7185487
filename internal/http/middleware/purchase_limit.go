package middleware

// Fixed-window request limiting for the purchase endpoint.
//
// Each (vendor, window) pair gets a counter in a CounterStore. With Redis the
// counter is shared by every replica, so a vendor cannot multiply their
// purchase attempts by spreading them over instances. The limiter fails open:
// if the store is unreachable the request proceeds and a warning is logged,
// because the quota engine behind it remains the source of truth.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CounterStore increments a counter that expires after window.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a CounterStore backed by Redis INCR + EXPIRE.
type RedisCounter struct {
	Client *redis.Client
}

// NewRedisCounter connects to addr and verifies the connection with PING.
func NewRedisCounter(ctx context.Context, addr, password string, db int) (*RedisCounter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisCounter{Client: client}, nil
}

// Incr implements CounterStore.
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Close releases the Redis connection pool.
func (r *RedisCounter) Close() error { return r.Client.Close() }

// MemoryCounter is a process-local CounterStore used when Redis is not
// configured.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*memEntry
}

type memEntry struct {
	n       int64
	expires time.Time
}

// NewMemoryCounter returns an empty MemoryCounter. A nil now uses time.Now.
func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{now: now, entries: make(map[string]*memEntry)}
}

// Incr implements CounterStore.
func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	e, ok := m.entries[key]
	if !ok {
		e = &memEntry{expires: now.Add(window)}
		m.entries[key] = e
	}
	e.n++
	return e.n, nil
}

// FixedWindowLimit allows at most limit requests per key per window.
//
// Keys are "purchase_rl:<key>:<window start unix>". Idempotent replays are
// not counted. A limit <= 0 disables the middleware.
func FixedWindowLimit(store CounterStore, limit int, window time.Duration, keyFn KeyFunc, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		if limit <= 0 || store == nil || IsRateBypass(c) {
			c.Next()
			return
		}

		t := now()
		start := t.Truncate(window)
		key := fmt.Sprintf("purchase_rl:%s:%d", keyFn(c), start.Unix())

		n, err := store.Incr(c.Request.Context(), key, window)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("key", key).Msg("purchase limiter unavailable; allowing request")
			c.Next()
			return
		}
		if n > int64(limit) {
			retry := int(start.Add(window).Sub(t).Seconds())
			if retry < 1 {
				retry = 1
			}
			abortRateLimited(c, "purchase_window", retry)
			return
		}
		c.Next()
	}
}
