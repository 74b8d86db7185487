// Command server runs the lead marketplace HTTP API.
//
// @title       Lead Marketplace API
// @version     1.0
// @description Quota-gated lead marketplace: vendors subscribe to plans and purchase buyer leads exactly once.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/config"
	httpapi "github.com/tbourn/go-lead-marketplace/internal/http"
	"github.com/tbourn/go-lead-marketplace/internal/http/middleware"
	"github.com/tbourn/go-lead-marketplace/internal/observability"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
	"github.com/tbourn/go-lead-marketplace/internal/services"
	"github.com/tbourn/go-lead-marketplace/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const purgeEvery = time.Hour

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	logger, closer := sysutil.NewLogger(sysutil.LogOptions{
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile.Path,
		MaxSizeMB:  cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAgeDays: cfg.LogFile.MaxAgeDays,
	})
	defer closer.Close()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	loc, _ := time.LoadLocation(cfg.DBTimezone) // validated by config
	db, err := repo.Open(cfg.DBDSN, loc)
	if err != nil {
		log.Fatal().Err(err).Str("dialect", repo.DetectDialect(cfg.DBDSN)).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing disabled")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	if err := (&services.PlanService{DB: db}).Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed plans")
	}

	var counter middleware.CounterStore
	if cfg.Redis.Addr != "" {
		rc, err := middleware.NewRedisCounter(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// the limiter is advisory; fall back to per-instance counting
			log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable; using in-process purchase limiter")
		} else {
			defer rc.Close()
			counter = rc
		}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, counter)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, db)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// purgeIdempotency deletes expired replay records until ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("idempotency records purged")
			}
		}
	}
}
