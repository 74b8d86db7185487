package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func purchaseRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(VendorIdentity())
	r.POST("/leads/:id/purchase", mw, func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func postAs(r *gin.Engine, vendor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/leads/l1/purchase", nil)
	req.Header.Set(HeaderVendorID, vendor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFixedWindowLimit_PerVendorWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, 3, 11, 10, 0, 20, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryCounter(clock)
	r := purchaseRouter(FixedWindowLimit(store, 2, time.Minute, KeyByVendorOrIP(), clock))

	base := testutil.ToFloat64(httpRateLimited.WithLabelValues("purchase_window"))

	for i := 0; i < 2; i++ {
		if w := postAs(r, "v1"); w.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
	w := postAs(r, "v1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d; want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("Retry-After = %q; want 40", got)
	}
	if got := testutil.ToFloat64(httpRateLimited.WithLabelValues("purchase_window")); got != base+1 {
		t.Fatalf("rate limited counter = %v; want %v", got, base+1)
	}

	// other vendors have their own counter
	if w := postAs(r, "v2"); w.Code != http.StatusCreated {
		t.Fatalf("v2 status = %d", w.Code)
	}

	// next window starts fresh
	now = now.Add(time.Minute)
	if w := postAs(r, "v1"); w.Code != http.StatusCreated {
		t.Fatalf("next window status = %d", w.Code)
	}
}

func TestFixedWindowLimit_ReplayBypassAndDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewMemoryCounter(nil)

	r := gin.New()
	r.Use(VendorIdentity(), func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	r.POST("/p", FixedWindowLimit(store, 1, time.Minute, KeyByVendorOrIP(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/p", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d status = %d", i, w.Code)
		}
	}

	off := purchaseRouter(FixedWindowLimit(store, 0, time.Minute, KeyByVendorOrIP(), nil))
	for i := 0; i < 3; i++ {
		if w := postAs(off, "v1"); w.Code != http.StatusCreated {
			t.Fatalf("disabled limiter status = %d", w.Code)
		}
	}
}

func TestFixedWindowLimit_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := purchaseRouter(FixedWindowLimit(failingStore{}, 1, time.Minute, KeyByVendorOrIP(), nil))
	for i := 0; i < 3; i++ {
		if w := postAs(r, "v1"); w.Code != http.StatusCreated {
			t.Fatalf("fail-open request %d status = %d", i, w.Code)
		}
	}
}

func TestRedisCounter_UnreachableFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store := &RedisCounter{Client: client}
	if _, err := store.Incr(context.Background(), "k", time.Minute); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}

	r := purchaseRouter(FixedWindowLimit(store, 1, time.Minute, KeyByVendorOrIP(), nil))
	for i := 0; i < 2; i++ {
		if w := postAs(r, "v1"); w.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
}

func TestNewRedisCounter_PingError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := NewRedisCounter(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestMemoryCounter_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryCounter(func() time.Time { return now })
	ctx := context.Background()

	if n, _ := m.Incr(ctx, "a", time.Second); n != 1 {
		t.Fatalf("first incr = %d", n)
	}
	if n, _ := m.Incr(ctx, "a", time.Second); n != 2 {
		t.Fatalf("second incr = %d", n)
	}
	now = now.Add(time.Second)
	if n, _ := m.Incr(ctx, "a", time.Second); n != 1 {
		t.Fatalf("after expiry = %d", n)
	}
}
