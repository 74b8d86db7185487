// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the Prometheus instrumentation for HTTP traffic. Labels are
// kept bounded:
//
//   - method: HTTP verb
//   - path:   the registered Gin route (e.g. /api/v1/leads/:id/purchase), or
//     "unmatched" when no route matched, so probing with random lead ids
//     cannot grow the series count
//   - status: numeric status code as a string
//   - code:   the stable API error code of a rejected request
//     (e.g. quota_exceeded_daily, already_owned, rate_limited)
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedPath is the path label for requests that hit no route.
const unmatchedPath = "unmatched"

// ctxKeyErrorCode carries the API error code written for a request.
const ctxKeyErrorCode = "api.error_code"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// status is left off the latency histogram to keep its series count low.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpErrors splits rejected requests by their API error code, which is
	// how denied purchases are told apart (402 vs 409 vs 429 per window).
	httpErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_error_codes_total",
			Help: "Rejected HTTP requests by route and API error code.",
		},
		[]string{"path", "code"},
	)

	// httpRateLimited counts requests rejected by a limiter
	// ("token_bucket" or "purchase_window").
	httpRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by a rate limiter.",
		},
		[]string{"limiter"},
	)

	// Lead pages and purchase grants are small JSON documents.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 2, 12), // 256B..512KiB
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpErrors, httpRateLimited, httpRespSize)
}

// SetErrorCode records the API error code of the current response so
// Metrics can count it. Handlers call it from their error writers.
func SetErrorCode(c *gin.Context, code string) {
	c.Set(ctxKeyErrorCode, code)
}

// ErrorCodeFrom returns the code recorded by SetErrorCode, if any.
func ErrorCodeFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyErrorCode)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// abortWithCode writes the shared error envelope and records its code.
func abortWithCode(c *gin.Context, status int, code, msg string) {
	SetErrorCode(c, code)
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       code,
		"message":    msg,
	})
}

// routeLabel is the bounded path label for c.
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedPath
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
// Mount /metrics with promhttp alongside it.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := routeLabel(c)
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// -1 when nothing was written
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
		if code, ok := ErrorCodeFrom(c); ok {
			httpErrors.WithLabelValues(path, code).Inc()
		}
	}
}
