// Package config loads the service configuration from environment variables.
//
// Unset or blank variables take their defaults. A variable that is set but
// cannot be parsed is an error rather than a silent fallback, and Load
// reports every problem at once so a broken deployment can be fixed in one
// pass.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host's zoneinfo

	"github.com/tbourn/go-lead-marketplace/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-lead-marketplace")
	Environment string  // DEPLOY_ENV, reported as deployment.environment
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LogFileConfig enables a rotating file sink next to stdout.
type LogFileConfig struct {
	Path       string // LOG_FILE; empty disables the sink
	MaxSizeMB  int    // LOG_FILE_MAX_MB
	MaxBackups int    // LOG_FILE_MAX_BACKUPS
	MaxAgeDays int    // LOG_FILE_MAX_AGE_DAYS
}

// MarketplaceConfig holds purchase policy knobs.
type MarketplaceConfig struct {
	// QuotaTimezone names the zone daily/weekly/yearly windows roll over in.
	QuotaTimezone string
	QuotaLocation *time.Location

	PurchaseMaxRetries int           // bounded optimistic retries of a grant
	PurchaseBackoff    time.Duration // base retry delay, doubled per attempt
	TopUpOverflow      bool          // draw from the top-up pool when a window is full
	ScanLimit          int           // candidates ranked when ?q= is given
}

// RedisConfig configures the shared purchase-route limiter. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub emails/phones/ids from access logs
	LogFile        LogFileConfig
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBDSN      string // SQLite path, file: DSN, or postgres:// URL
	DBTimezone string // zone used by the Postgres driver for timestamptz

	Marketplace MarketplaceConfig

	// Rate limiting
	RateRPS            float64 // tokens per second (>= 0)
	RateBurst          int     // bucket size (>= 1)
	PurchaseRatePerMin int     // purchase attempts per vendor per minute, 0 disables
	Redis              RedisConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a purchase Idempotency-Key replays

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for main: it panics on any configuration error.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads, normalizes and validates the configuration. The returned
// error joins every parse and validation failure.
func Load() (Config, error) {
	env := &envReader{}

	dsn, ok := sysutil.LookupFirst("DB_DSN", "DB_PATH") // DB_PATH: legacy SQLite file alias
	if !ok {
		dsn = "leads.db"
	}

	cfg := Config{
		Port:              env.str("PORT", "8080"),
		ReadTimeout:       env.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: env.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      env.duration("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       env.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    env.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(env.str("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(env.str("LOG_LEVEL", "info")),
		LogPretty: env.flag("LOG_PRETTY", false),
		LogRedact: env.flag("LOG_REDACT", true),
		LogFile: LogFileConfig{
			Path:       env.str("LOG_FILE", ""),
			MaxSizeMB:  env.integer("LOG_FILE_MAX_MB", 100),
			MaxBackups: env.integer("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: env.integer("LOG_FILE_MAX_AGE_DAYS", 28),
		},
		SwaggerEnabled: env.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(env.str("API_BASE_PATH", "/api/v1")),

		DBDSN:      dsn,
		DBTimezone: env.str("DB_TIMEZONE", "UTC"),

		Marketplace: MarketplaceConfig{
			QuotaTimezone:      env.str("QUOTA_TIMEZONE", "UTC"),
			PurchaseMaxRetries: env.integer("PURCHASE_MAX_RETRIES", 5),
			PurchaseBackoff:    env.duration("PURCHASE_RETRY_BACKOFF", 5*time.Millisecond),
			TopUpOverflow:      env.flag("TOPUP_OVERFLOW", true),
			ScanLimit:          env.integer("MARKETPLACE_SCAN_LIMIT", 500),
		},

		RateRPS:            env.number("RATE_RPS", 5),
		RateBurst:          env.integer("RATE_BURST", 10),
		PurchaseRatePerMin: env.integer("PURCHASE_RATE_PER_MIN", 60),
		Redis: RedisConfig{
			Addr:     env.str("REDIS_ADDR", ""),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.integer("REDIS_DB", 0),
		},

		CORS: CORSConfig{AllowedOrigins: splitCSV(env.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: env.flag("ENABLE_HSTS", false),
			HSTSMaxAge: env.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: env.duration("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     env.flag("OTEL_ENABLED", false),
			Endpoint:    env.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    env.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: env.str("OTEL_SERVICE_NAME", "go-lead-marketplace"),
			Environment: env.str("DEPLOY_ENV", "dev"),
			SampleRatio: env.number("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	errs := append(env.errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

// validate checks ranges and resolves the time zones. It fills in
// Marketplace.QuotaLocation when QUOTA_TIMEZONE is valid.
func (cfg *Config) validate() []error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q: want debug, info, warn, error, fatal or panic", cfg.LogLevel))
	}
	check(strings.TrimSpace(cfg.Port) == "", "PORT must not be empty")
	check(cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(cfg.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")
	check(cfg.LogFile.Path != "" && (cfg.LogFile.MaxSizeMB <= 0 || cfg.LogFile.MaxBackups < 0 || cfg.LogFile.MaxAgeDays < 0),
		"LOG_FILE_MAX_MB must be > 0 and LOG_FILE_MAX_BACKUPS, LOG_FILE_MAX_AGE_DAYS >= 0")

	if _, err := time.LoadLocation(cfg.DBTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DB_TIMEZONE: %w", err))
	}
	if loc, err := time.LoadLocation(cfg.Marketplace.QuotaTimezone); err != nil {
		errs = append(errs, fmt.Errorf("QUOTA_TIMEZONE: %w", err))
	} else {
		cfg.Marketplace.QuotaLocation = loc
	}
	check(cfg.Marketplace.PurchaseMaxRetries < 1, "PURCHASE_MAX_RETRIES must be >= 1")
	check(cfg.Marketplace.PurchaseBackoff <= 0, "PURCHASE_RETRY_BACKOFF must be > 0")
	check(cfg.Marketplace.ScanLimit < 1, "MARKETPLACE_SCAN_LIMIT must be >= 1")

	check(cfg.RateRPS < 0, "RATE_RPS must be >= 0")
	check(cfg.RateBurst < 1, "RATE_BURST must be >= 1")
	check(cfg.PurchaseRatePerMin < 0, "PURCHASE_RATE_PER_MIN must be >= 0")
	check(cfg.Redis.DB < 0, "REDIS_DB must be >= 0")
	check(cfg.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0")
	check(cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errs
}

// envReader reads typed variables and collects parse failures.
type envReader struct {
	errs []error
}

// lookup returns the trimmed value of k, or false when k is unset or blank.
func (e *envReader) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) fail(k, v, want string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q: not a valid %s", k, v, want))
}

func (e *envReader) str(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(k string, def int) int {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v, "integer")
		return def
	}
	return n
}

func (e *envReader) number(k string, def float64) float64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, v, "number")
		return def
	}
	return f
}

func (e *envReader) flag(k string, def bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	b, ok := sysutil.ParseBool(v)
	if !ok {
		e.fail(k, v, "boolean")
		return def
	}
	return b
}

func (e *envReader) duration(k string, def time.Duration) time.Duration {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v, "duration")
		return def
	}
	return d
}

// splitCSV splits a comma list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns p with one leading slash and no trailing slash;
// blank means "/".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
