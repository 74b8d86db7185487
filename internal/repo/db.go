// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and PostgreSQL (pgx), schema migrations, and the
// plan catalog seed.
package repo

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// Supported SQL dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// sqlitePragmas are attached to the DSN so every pooled connection gets them,
// not just the one that happens to run the first Exec.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// Open opens a GORM connection for dsn. Postgres URLs and key/value DSNs use
// the pgx driver; anything else is treated as a SQLite path. loc, when
// non-nil, is the session time zone for Postgres.
func Open(dsn string, loc *time.Location) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}
	switch DetectDialect(trimmed) {
	case DialectPostgres:
		return OpenPostgres(trimmed, loc)
	default:
		return OpenSQLite(strings.TrimPrefix(strings.TrimPrefix(trimmed, "sqlite://"), "sqlite3://"))
	}
}

// DetectDialect infers the dialect from a DSN string.
func DetectDialect(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") || strings.Contains(lower, "sslmode="):
		return DialectPostgres
	default:
		return DialectSQLite
	}
}

// OpenSQLite opens (or creates) a SQLite database with pragmas applied to
// every connection.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	file := path
	if i := strings.IndexByte(file, '?'); i >= 0 {
		file = file[:i]
	}
	file = strings.TrimPrefix(file, "file:")
	if dir := filepath.Dir(file); dir != "." && file != ":memory:" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(withSQLitePragmas(path)), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

func withSQLitePragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	q := make(url.Values)
	for _, p := range sqlitePragmas {
		name := p[:strings.IndexByte(p, '(')]
		if strings.Contains(path, "_pragma="+name) {
			continue
		}
		q.Add("_pragma", p)
	}
	if len(q) == 0 {
		return path
	}
	return path + sep + q.Encode()
}

// OpenPostgres opens a PostgreSQL connection through pgx, scanning
// timestamps in loc when provided.
func OpenPostgres(dsn string, loc *time.Location) (*gorm.DB, error) {
	sqlDB, err := openPostgresSQLDB(dsn, loc)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return db, nil
}

func openPostgresSQLDB(dsn string, loc *time.Location) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", err)
	}

	var options []stdlib.OptionOpenDB
	if loc != nil {
		cfg.RuntimeParams["timezone"] = loc.String()
		options = append(options, stdlib.OptionAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
			conn.TypeMap().RegisterType(&pgtype.Type{
				Name:  "timestamp",
				OID:   pgtype.TimestampOID,
				Codec: &pgtype.TimestampCodec{ScanLocation: loc},
			})
			conn.TypeMap().RegisterType(&pgtype.Type{
				Name:  "timestamptz",
				OID:   pgtype.TimestamptzOID,
				Codec: &pgtype.TimestamptzCodec{ScanLocation: loc},
			})
			return nil
		}))
	}
	return stdlib.OpenDB(*cfg, options...), nil
}

// EnableTracing attaches the GORM OpenTelemetry plugin so queries become
// child spans of the request span.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates every table the marketplace uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Vendor{},
		&domain.Plan{},
		&domain.Lead{},
		&domain.LeadPurchase{},
		&domain.VendorPlanSubscription{},
		&domain.VendorLeadQuota{},
		&domain.VendorAdditionalLeads{},
		&domain.Idempotency{},
	)
}

// SeedPlans inserts plans that do not exist yet. Existing rows are left
// untouched so operators can tune limits in the database.
func SeedPlans(ctx context.Context, db *gorm.DB, plans []domain.Plan) error {
	if len(plans) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&plans).Error
}
