// Purchase HTTP handler.
//
//   - POST /leads/{id}/purchase
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// purchase exists for (vendor, lead, key), the handler returns that grant with
// 200 and `Idempotency-Replayed: true` instead of 409 already_owned. The key
// is stored by the purchase service in the grant transaction.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/http/middleware"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
	"github.com/tbourn/go-lead-marketplace/internal/services"
)

// PurchaseResponse is the grant returned by a successful purchase.
type PurchaseResponse struct {
	// Purchase is the ledger row; absent when the lead is the vendor's own
	// Direct lead.
	Purchase *domain.LeadPurchase `json:"purchase,omitempty"`
	// Lead is the purchased lead with buyer contacts revealed.
	Lead services.LeadView `json:"lead"`
}

// PurchaseLead godoc
// @ID          purchaseLead
// @Summary     Purchase a lead
// @Description Grants the lead to the calling vendor if they are entitled and have quota in every window (daily, weekly, yearly).
// @Description Each failure reason has its own status and code. Supports Idempotency-Key for safe retries.
// @Tags        Leads
// @Produce     json
// @Param       X-Vendor-ID      header  string  true   "Vendor ID"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true   "Lead ID"
// @Success     201  {object}  handlers.PurchaseResponse  "Granted"
// @Success     200  {object}  handlers.PurchaseResponse  "Replayed grant"
// @Failure     402  {object}  handlers.ErrorResponse     "not_entitled"
// @Failure     404  {object}  handlers.ErrorResponse     "lead_not_available"
// @Failure     409  {object}  handlers.ErrorResponse     "already_owned"
// @Failure     429  {object}  handlers.ErrorResponse     "quota_exceeded_daily | quota_exceeded_weekly | quota_exceeded_yearly | rate_limited"
// @Failure     503  {object}  handlers.ErrorResponse     "try_again"
// @Router      /leads/{id}/purchase [post]
func (h *Handlers) PurchaseLead(c *gin.Context) {
	ctx := c.Request.Context()
	vid := vendorID(c)
	leadID := c.Param("id")
	key, _ := middleware.GetIdempotencyKey(c)

	if key != "" && h.replay(c, vid, leadID, key) {
		return
	}

	g, err := h.purchases.PurchaseWithKey(ctx, vid, leadID, key)
	if err != nil {
		// A concurrent request with the same key may have won the grant.
		if errors.Is(err, services.ErrAlreadyOwned) && key != "" && h.replay(c, vid, leadID, key) {
			return
		}
		failErr(c, err)
		return
	}

	ok(c, http.StatusCreated, PurchaseResponse{Purchase: g.Purchase, Lead: leadView(g)})
}

// replay serves a stored grant for (vendor, lead, key) and reports whether it
// wrote a response.
func (h *Handlers) replay(c *gin.Context, vid, leadID, key string) bool {
	if h.db == nil {
		return false
	}
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, h.db, vid, leadID, key, h.now().UTC())
	if err != nil {
		return false
	}

	var purchase *domain.LeadPurchase
	if rec.PurchaseID != "" {
		p, err := repo.GetPurchaseByID(ctx, h.db, vid, rec.PurchaseID)
		if err != nil {
			return false
		}
		purchase = p
	}
	view, err := h.catalog.GetLead(ctx, vid, leadID)
	if err != nil {
		return false
	}

	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	ok(c, http.StatusOK, PurchaseResponse{Purchase: purchase, Lead: *view})
	return true
}
