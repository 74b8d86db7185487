package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newMetricsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/leads/:id", func(c *gin.Context) { c.String(http.StatusOK, "lead") })
	r.POST("/leads/:id/purchase", func(c *gin.Context) {
		SetErrorCode(c, "quota_exceeded_daily")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": "quota_exceeded_daily"})
	})
	r.DELETE("/leads/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestMetrics_RouteLabelAndInflight(t *testing.T) {
	r := newMetricsRouter()

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/leads/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/"+id, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET /leads/%s -> %d", id, w.Code)
		}
	}
	// both ids share one series
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/leads/:id", "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v; want %v", got, baseOK+2)
	}

	// unmatched paths collapse to one label
	for _, p := range []string{"/nope/1", "/nope/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("GET %s -> %d", p, w.Code)
		}
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")); got != base404+2 {
		t.Fatalf("unmatched counter = %v; want %v", got, base404+2)
	}

	// status-only response skips the size histogram without breaking
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/leads/x", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE -> %d", w.Code)
	}

	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestMetrics_ErrorCodes(t *testing.T) {
	r := newMetricsRouter()
	series := httpErrors.WithLabelValues("/leads/:id/purchase", "quota_exceeded_daily")
	base := testutil.ToFloat64(series)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leads/x/purchase", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}
	if got := testutil.ToFloat64(series); got != base+1 {
		t.Fatalf("error code counter = %v; want %v", got, base+1)
	}

	// successful requests record nothing
	baseOK := testutil.CollectAndCount(httpErrors)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/x", nil))
	if got := testutil.CollectAndCount(httpErrors); got != baseOK {
		t.Fatalf("unexpected new error series: %d -> %d", baseOK, got)
	}
}

func TestErrorCodeFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := ErrorCodeFrom(c); ok {
		t.Fatalf("expected no code")
	}
	SetErrorCode(c, "")
	if _, ok := ErrorCodeFrom(c); ok {
		t.Fatalf("empty code should not count")
	}
	SetErrorCode(c, "already_owned")
	if code, ok := ErrorCodeFrom(c); !ok || code != "already_owned" {
		t.Fatalf("got %q %v", code, ok)
	}
}
