package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lead-marketplace/internal/http/middleware"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
	"github.com/tbourn/go-lead-marketplace/internal/services"
)

// harness mounts every endpoint on a real SQLite store. The service clock
// starts on Wednesday 2026-03-11 10:00 UTC and advances one second per
// created lead.
type harness struct {
	db  *gorm.DB
	now time.Time
	r   *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	db = db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	h := &harness{db: db, now: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)}
	clock := services.Clock(func() time.Time { return h.now })

	plans := &services.PlanService{DB: db}
	if err := plans.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ent := &services.EntitlementService{DB: db, Location: time.UTC, Clock: clock}
	dis := &services.DisclosureService{DB: db}

	api := New(Deps{
		Vendors:      &services.VendorService{DB: db},
		Plans:        plans,
		Entitlements: ent,
		TopUps:       &services.TopUpService{DB: db},
		Catalog:      &services.CatalogService{DB: db, Disclosure: dis, Clock: clock},
		Purchases:    &services.AdmissionService{DB: db, Entitlements: ent, MaxRetries: 5, Backoff: time.Millisecond, Clock: clock},
		DB:           db,
		Now:          clock,
	})
	h.r = mount(api, db, clock)
	return h
}

// mount wires routes the same way the production router does.
func mount(api *Handlers, db *gorm.DB, now func() time.Time) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.VendorIdentity())

	lookup := func(ctx context.Context, vendorID, leadID, key string, now time.Time) (bool, error) {
		if db == nil {
			return false, nil
		}
		_, err := repo.GetIdempotency(ctx, db, vendorID, leadID, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}

	r.GET("/plans", api.ListPlans)
	r.POST("/vendors", api.CreateVendor)
	r.POST("/leads", api.CreateLead)

	v := r.Group("", middleware.RequireVendor())
	v.GET("/vendors/me", api.GetMe)
	v.POST("/vendors/me/deactivate", api.DeactivateMe)
	v.POST("/subscriptions", api.Subscribe)
	v.GET("/subscriptions/current", api.GetCurrentSubscription)
	v.POST("/subscriptions/:id/renew", api.RenewSubscription)
	v.POST("/subscriptions/:id/cancel", api.CancelSubscription)
	v.PUT("/subscriptions/:id/auto-renewal", api.SetAutoRenewal)
	v.GET("/quota", api.GetQuota)
	v.POST("/topups", api.BuyTopUp)
	v.POST("/leads/direct", api.CreateDirectLead)
	v.GET("/leads/marketplace", api.ListMarketplace)
	v.GET("/leads/owned", api.ListOwned)
	v.GET("/leads/:id", api.GetLead)
	v.POST("/leads/:id/purchase", middleware.IdempotencyValidator(middleware.IdempotencyOptions{Now: now}, lookup), api.PurchaseLead)
	return r
}

func (h *harness) do(t *testing.T, method, path, vendor string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if vendor != "" {
		req.Header.Set(middleware.HeaderVendorID, vendor)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (%s)", v, err, w.Body.String())
	}
	return v
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (%s)", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	if got := decode[ErrorResponse](t, w); got.Code != code {
		t.Fatalf("code = %q; want %q", got.Code, code)
	}
}

func (h *harness) vendor(t *testing.T, name string) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/vendors", "", CreateVendorRequest{Name: name})
	expectCode(t, w, http.StatusCreated, "")
	return decode[map[string]any](t, w)["id"].(string)
}

func (h *harness) subscribed(t *testing.T, name, plan string) string {
	t.Helper()
	id := h.vendor(t, name)
	expectCode(t, h.do(t, http.MethodPost, "/subscriptions", id, SubscribeRequest{PlanID: plan}), http.StatusCreated, "")
	return id
}

func (h *harness) lead(t *testing.T, title string) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/leads", "", CreateLeadRequest{
		Title:      title,
		Category:   "steel",
		Price:      5,
		BuyerName:  "Ravi",
		BuyerEmail: "ravi@example.com",
		BuyerPhone: "+91 98765 43210",
	})
	expectCode(t, w, http.StatusCreated, "")
	h.now = h.now.Add(time.Second)
	return decode[map[string]any](t, w)["id"].(string)
}
