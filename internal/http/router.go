// Package httpapi wires the HTTP transport (Gin) to the marketplace services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → vendor → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-lead-marketplace/docs"
	"github.com/tbourn/go-lead-marketplace/internal/config"
	"github.com/tbourn/go-lead-marketplace/internal/http/handlers"
	"github.com/tbourn/go-lead-marketplace/internal/http/middleware"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
	"github.com/tbourn/go-lead-marketplace/internal/services"
)

// allowHeaders lists request headers browsers may send cross-origin.
var allowHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
	middleware.HeaderVendorID, middleware.HeaderIdempotencyKey,
}

// exposeHeaders lists response headers browsers may read cross-origin.
var exposeHeaders = []string{
	"X-Request-ID", "Content-Length", "ETag", "Retry-After", middleware.HeaderIdempotencyReplayed,
}

// idempotencyLookup adapts repo.GetIdempotency to the validator callback.
// A missing record is a miss, not an error.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, vendorID, leadID, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, vendorID, leadID, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return rec != nil, nil
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It builds the marketplace services from cfg, configures
// observability, CORS and security headers, health and metrics endpoints, and
// then mounts the versioned public API under cfg.APIBasePath.
//
// counter backs the per-vendor purchase window; nil selects an in-process
// counter, which is only accurate for a single instance.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. VendorIdentity: read X-Vendor-ID for logs and limiter keys
//  4. AccessLog (redacting when cfg.LogRedact)
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. CORS and Security headers
//
// Per route: token-bucket limiter (per vendor/IP) on the API groups; the
// purchase route additionally runs idempotency validation before the limiters
// so replays bypass them, then the fixed-window purchase limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, counter middleware.CounterStore) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2-3) Correlate requests and logs
	r.Use(middleware.RequestID())
	r.Use(middleware.VendorIdentity())

	// 4) Structured logging, scrubbing buyer contact details when enabled
	var logOpts middleware.AccessLogOptions
	if cfg.LogRedact {
		logOpts.Redactor = middleware.NewRedactor(middleware.HeaderIdempotencyKey)
	}
	r.Use(middleware.AccessLog(logOpts))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture; an empty allowlist means any origin, without credentials
	r.Use(corsHandlers(cfg.CORS.AllowedOrigins)...)

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	ent := &services.EntitlementService{DB: db, Location: cfg.Marketplace.QuotaLocation}
	disclosure := &services.DisclosureService{DB: db}
	h := handlers.New(handlers.Deps{
		Vendors:      &services.VendorService{DB: db},
		Plans:        &services.PlanService{DB: db},
		Entitlements: ent,
		TopUps:       &services.TopUpService{DB: db},
		Catalog: &services.CatalogService{
			DB:         db,
			Disclosure: disclosure,
			ScanLimit:  cfg.Marketplace.ScanLimit,
			Locale:     language.English,
		},
		Purchases: &services.AdmissionService{
			DB:             db,
			Entitlements:   ent,
			MaxRetries:     cfg.Marketplace.PurchaseMaxRetries,
			Backoff:        cfg.Marketplace.PurchaseBackoff,
			TopUpOverflow:  cfg.Marketplace.TopUpOverflow,
			IdempotencyTTL: cfg.IdempotencyTTL,
		},
		DB: db,
	})

	// Limiters
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByVendorOrIP())
	limit := rl.Handler()
	if counter == nil {
		counter = middleware.NewMemoryCounter(nil)
	}
	purchaseWindow := middleware.FixedWindowLimit(counter, cfg.PurchaseRatePerMin, time.Minute, middleware.KeyByVendorOrIP(), nil)
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db))
	compress := gzip.Gzip(gzip.DefaultCompression)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Catalog and registration
		pub := api.Group("", limit)
		pub.GET("/plans", h.ListPlans)
		pub.POST("/vendors", h.CreateVendor)
		pub.POST("/leads", h.CreateLead)
	}

	vendor := api.Group("", middleware.RequireVendor())
	{
		v := vendor.Group("", limit)

		// Account
		v.GET("/vendors/me", h.GetMe)
		v.POST("/vendors/me/deactivate", h.DeactivateMe)

		// Subscriptions and quota
		v.POST("/subscriptions", h.Subscribe)
		v.GET("/subscriptions/current", h.GetCurrentSubscription)
		v.POST("/subscriptions/:id/renew", h.RenewSubscription)
		v.POST("/subscriptions/:id/cancel", h.CancelSubscription)
		v.PUT("/subscriptions/:id/auto-renewal", h.SetAutoRenewal)
		v.GET("/quota", h.GetQuota)
		v.POST("/topups", h.BuyTopUp)

		// Leads
		v.POST("/leads/direct", h.CreateDirectLead)
		v.GET("/leads/marketplace", compress, h.ListMarketplace)
		v.GET("/leads/owned", compress, middleware.NoStore(), h.ListOwned)
		v.GET("/leads/:id", middleware.NoStore(), h.GetLead)

		// Purchase: idempotency first so replays bypass both limiters
		vendor.POST("/leads/:id/purchase", idem, limit, purchaseWindow, middleware.NoStore(), h.PurchaseLead)
	}
}

// corsHandlers returns the CORS chain. gin-contrib/cors only answers requests
// carrying an Origin, so a small pre-handler also stamps
// Access-Control-Allow-Origin on plain requests (health probes, curl) and
// echoes allowlisted origins with Vary: Origin.
func corsHandlers(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  allowHeaders,
		ExposeHeaders: exposeHeaders,
		MaxAge:        12 * time.Hour,
	}

	var stamp gin.HandlerFunc
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		stamp = func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		}
	} else {
		cc.AllowOrigins = origins
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		stamp = func(c *gin.Context) {
			if o := c.GetHeader("Origin"); allowed[o] {
				c.Writer.Header().Set("Access-Control-Allow-Origin", o)
				c.Writer.Header().Add("Vary", "Origin")
			}
			c.Next()
		}
	}
	return []gin.HandlerFunc{stamp, cors.New(cc)}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
