package middleware

// Per-caller token buckets for the general API surface.
//
// Every vendor (or anonymous client IP) gets its own golang.org/x/time/rate
// bucket. Buckets live in process memory; the purchase endpoint is
// additionally guarded by FixedWindowLimit, which can be shared across
// replicas through Redis.

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc names the bucket a request is charged to.
type KeyFunc func(*gin.Context) string

// KeyByVendorOrIP charges identified vendors to "vendor:<id>" and everyone
// else to "ip:<client ip>".
func KeyByVendorOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if id, ok := VendorIDFrom(c); ok {
			return "vendor:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

const (
	defaultBucketIdle = 10 * time.Minute
	sweepEvery        = time.Minute
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// TokenBuckets is a set of per-key token buckets. Buckets idle for longer
// than Idle are dropped by a sweep that runs at most once per minute.
// Safe for concurrent use.
type TokenBuckets struct {
	rps   rate.Limit
	burst int
	key   KeyFunc
	now   func() time.Time

	// Idle is how long an unused bucket is retained.
	Idle time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter returns buckets refilling at rps tokens per second with the
// given burst (minimum 1), keyed by key.
func NewRateLimiter(rps float64, burst int, key KeyFunc) *TokenBuckets {
	return newTokenBuckets(rps, burst, key, time.Now)
}

func newTokenBuckets(rps float64, burst int, key KeyFunc, now func() time.Time) *TokenBuckets {
	return &TokenBuckets{
		rps:     rate.Limit(rps),
		burst:   max(burst, 1),
		key:     key,
		now:     now,
		Idle:    defaultBucketIdle,
		buckets: make(map[string]*bucket),
	}
}

// take spends one token from key's bucket. When the bucket is empty it
// returns false and how long until a token would be available.
func (tb *TokenBuckets) take(key string) (bool, time.Duration) {
	now := tb.now()

	tb.mu.Lock()
	if now.Sub(tb.lastSweep) >= sweepEvery {
		for k, b := range tb.buckets {
			if now.Sub(b.seen) >= tb.Idle {
				delete(tb.buckets, k)
			}
		}
		tb.lastSweep = now
	}
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(tb.rps, tb.burst)}
		tb.buckets[key] = b
	}
	b.seen = now
	tb.mu.Unlock()

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		// not spending the token we would have to wait for
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Len reports how many buckets are currently held.
func (tb *TokenBuckets) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as
// a replay. Replays are served from the stored response and are never
// charged to any limiter.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// Handler rejects requests whose bucket is empty with 429 rate_limited and
// a Retry-After of the whole seconds until the next token.
func (tb *TokenBuckets) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		if ok, wait := tb.take(tb.key(c)); !ok {
			abortRateLimited(c, "token_bucket", int(math.Ceil(wait.Seconds())))
			return
		}
		c.Next()
	}
}

// abortRateLimited counts the rejection and writes the 429 envelope.
func abortRateLimited(c *gin.Context, limiter string, retryAfter int) {
	httpRateLimited.WithLabelValues(limiter).Inc()
	c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
	abortWithCode(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
}
