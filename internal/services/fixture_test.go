package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
)

// testPlan matches the worked example: 2 per day, 10 per week, 100 per year.
var testPlan = domain.Plan{ID: "test", Name: "Test", DailyLimit: 2, WeeklyLimit: 10, YearlyLimit: 100, DurationDays: 30, Price: 10}

type fixture struct {
	db  *gorm.DB
	now time.Time

	vendors *VendorService
	plans   *PlanService
	ent     *EntitlementService
	adm     *AdmissionService
	cat     *CatalogService
	dis     *DisclosureService
	topups  *TopUpService
}

// newFixture opens a temp-file SQLite store (real locking, unlike shared
// memory) and wires every service to a controllable clock. The clock starts
// on Wednesday 2026-03-11 10:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	db = db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})

	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	f := &fixture{db: db, now: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)}
	clock := Clock(func() time.Time { return f.now })

	f.vendors = &VendorService{DB: db}
	f.plans = &PlanService{DB: db}
	f.ent = &EntitlementService{DB: db, Location: time.UTC, Clock: clock}
	f.dis = &DisclosureService{DB: db}
	f.adm = &AdmissionService{DB: db, Entitlements: f.ent, MaxRetries: 5, Backoff: time.Millisecond, Clock: clock}
	f.cat = &CatalogService{DB: db, Disclosure: f.dis, Clock: clock}
	f.topups = &TopUpService{DB: db}

	if err := f.plans.Seed(context.Background()); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	if err := repo.SeedPlans(context.Background(), db, []domain.Plan{testPlan}); err != nil {
		t.Fatalf("seed test plan: %v", err)
	}
	return f
}

func (f *fixture) vendor(t *testing.T, name string) string {
	t.Helper()
	v, err := f.vendors.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	return v.ID
}

func (f *fixture) subscribedVendor(t *testing.T, name string) string {
	t.Helper()
	id := f.vendor(t, name)
	if _, err := f.ent.Subscribe(context.Background(), id, testPlan.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return id
}

func (f *fixture) lead(t *testing.T, title string) *domain.Lead {
	t.Helper()
	l, err := f.cat.CreateMarketplaceLead(context.Background(), LeadInput{
		Title:      title,
		Category:   "steel",
		Price:      5,
		BuyerName:  "Ravi",
		BuyerEmail: "ravi@example.com",
		BuyerPhone: "+91 98765 43210",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	// distinct creation instants keep recency ordering deterministic
	f.now = f.now.Add(time.Second)
	return l
}

func (f *fixture) directLead(t *testing.T, owner, title string) *domain.Lead {
	t.Helper()
	l, err := f.cat.CreateDirectLead(context.Background(), owner, LeadInput{
		Title:      title,
		BuyerName:  "Asha",
		BuyerEmail: "asha@example.com",
	})
	if err != nil {
		t.Fatalf("create direct lead: %v", err)
	}
	f.now = f.now.Add(time.Second)
	return l
}

func (f *fixture) quota(t *testing.T, vendorID string) *domain.VendorLeadQuota {
	t.Helper()
	q, err := repo.GetQuota(context.Background(), f.db, vendorID)
	if err != nil {
		t.Fatalf("GetQuota: %v", err)
	}
	return q
}

func (f *fixture) purchases(t *testing.T, vendorID string) int64 {
	t.Helper()
	n, err := repo.CountPurchases(context.Background(), f.db, vendorID)
	if err != nil {
		t.Fatalf("CountPurchases: %v", err)
	}
	return n
}
