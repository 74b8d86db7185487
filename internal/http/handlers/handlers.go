// Package handlers implements the REST endpoints of the lead marketplace.
//
// Handlers are transport-thin: they bind and validate input, resolve the
// calling vendor from X-Vendor-ID, delegate to application services, and map
// service errors to stable HTTP codes (errors.go).
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/http/middleware"
	"github.com/tbourn/go-lead-marketplace/internal/services"
)

//
// Service contracts (context-aware)
//

// VendorService manages vendor accounts.
type VendorService interface {
	Create(ctx context.Context, name string) (*domain.Vendor, error)
	Get(ctx context.Context, id string) (*domain.Vendor, error)
	Deactivate(ctx context.Context, id string) error
}

// PlanService reads the plan catalog.
type PlanService interface {
	List(ctx context.Context) ([]domain.Plan, error)
}

// EntitlementService owns subscriptions and the quota read model.
type EntitlementService interface {
	Subscribe(ctx context.Context, vendorID, planID string) (*services.SubscriptionView, error)
	Renew(ctx context.Context, vendorID, subscriptionID string) (*services.SubscriptionView, error)
	Cancel(ctx context.Context, vendorID, subscriptionID string) (*services.SubscriptionView, error)
	SetAutoRenewal(ctx context.Context, vendorID, subscriptionID string, enabled bool) (*services.SubscriptionView, error)
	GetCurrentSubscription(ctx context.Context, vendorID string) (*services.SubscriptionView, error)
	GetQuotaSnapshot(ctx context.Context, vendorID string) (*services.QuotaSnapshot, error)
}

// TopUpService sells extra leads.
type TopUpService interface {
	Buy(ctx context.Context, vendorID string, leads int, amount float64) (*domain.VendorAdditionalLeads, error)
}

// CatalogService reads and writes leads as seen by a vendor.
type CatalogService interface {
	CreateMarketplaceLead(ctx context.Context, in services.LeadInput) (*domain.Lead, error)
	CreateDirectLead(ctx context.Context, owningVendorID string, in services.LeadInput) (*domain.Lead, error)
	ListMarketplace(ctx context.Context, vendorID string, page, pageSize int, q string) ([]services.LeadView, int64, error)
	ListOwned(ctx context.Context, vendorID string, page, pageSize int) ([]services.LeadView, int64, error)
	GetLead(ctx context.Context, vendorID, leadID string) (*services.LeadView, error)
}

// PurchaseService grants leads.
type PurchaseService interface {
	PurchaseWithKey(ctx context.Context, vendorID, leadID, idempotencyKey string) (*services.Grant, error)
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. DB is optional; without it list
// endpoints skip ETags and purchases never replay.
type Deps struct {
	Vendors      VendorService
	Plans        PlanService
	Entitlements EntitlementService
	TopUps       TopUpService
	Catalog      CatalogService
	Purchases    PurchaseService

	DB  *gorm.DB
	Now func() time.Time
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	vendors   VendorService
	plans     PlanService
	ent       EntitlementService
	topups    TopUpService
	catalog   CatalogService
	purchases PurchaseService

	db  *gorm.DB
	now func() time.Time
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	h := &Handlers{
		vendors:   d.Vendors,
		plans:     d.Plans,
		ent:       d.Entitlements,
		topups:    d.TopUps,
		catalog:   d.Catalog,
		purchases: d.Purchases,
		db:        d.DB,
		now:       d.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// vendorID returns the caller set by middleware.VendorIdentity. Routes that
// need it sit behind middleware.RequireVendor, so an empty result only
// happens in misconfigured tests.
func vendorID(c *gin.Context) string {
	id, _ := middleware.VendorIDFrom(c)
	return id
}
