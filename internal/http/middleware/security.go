package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions selects the optional hardening headers.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests. Turn it
	// on only when TLS reaches the proxy in front of this service.
	EnableHSTS bool
	HSTSMaxAge time.Duration // defaults to 180 days

	NoStore      bool // Cache-Control: no-store on every response
	EnablePolicy bool // Permissions-Policy for browser clients
}

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// exposedHeaders are the response headers browser clients need from this
// API: correlation, conditional listing, purchase replay and back-off.
var exposedHeaders = []string{requestIDHeader, "ETag", HeaderIdempotencyReplayed, "Retry-After"}

type headerPair struct{ name, value string }

var (
	baselineHeaders = []headerPair{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	policyHeaders = []headerPair{
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
		{"X-Permitted-Cross-Domain-Policies", "none"},
	}
	noStoreHeaders = []headerPair{
		{"Cache-Control", "no-store"},
		{"Pragma", "no-cache"},
		{"Expires", "0"},
	}
)

// SecurityHeaders sets the hardening headers for a JSON API. The header set
// is fixed when the middleware is built; only HSTS depends on the request.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := append([]headerPair(nil), baselineHeaders...)
	if opt.EnablePolicy {
		static = append(static, policyHeaders...)
	}
	if opt.NoStore {
		static = append(static, noStoreHeaders...)
	}
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range static {
			h.Set(p.name, p.value)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		exposeHeaders(h, exposedHeaders...)
		c.Next()
	}
}

// NoStore marks one route's responses uncacheable. Revealed buyer contacts
// (lead detail, owned listing, purchase) must never sit in a shared cache.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range noStoreHeaders {
			h.Set(p.name, p.value)
		}
		c.Next()
	}
}

// exposeHeaders merges names into Access-Control-Expose-Headers, keeping
// whatever CORS already put there and skipping names already listed.
func exposeHeaders(h http.Header, names ...string) {
	const key = "Access-Control-Expose-Headers"
	var list []string
	seen := map[string]bool{}
	for _, part := range strings.Split(h.Get(key), ",") {
		if part = strings.TrimSpace(part); part != "" && !seen[strings.ToLower(part)] {
			seen[strings.ToLower(part)] = true
			list = append(list, part)
		}
	}
	for _, n := range names {
		if !seen[strings.ToLower(n)] {
			seen[strings.ToLower(n)] = true
			list = append(list, n)
		}
	}
	if len(list) > 0 {
		h.Set(key, strings.Join(list, ", "))
	}
}

// isHTTPS reports whether the client reached us over TLS, directly or via a
// proxy that says so in X-Forwarded-Proto or Forwarded.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	for _, elem := range strings.Split(r.Header.Get("Forwarded"), ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(elem), "=")
		if ok && strings.EqualFold(k, "proto") && strings.EqualFold(strings.Trim(v, `"`), "https") {
			return true
		}
	}
	return false
}
