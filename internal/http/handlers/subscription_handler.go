// Subscription and quota HTTP handlers.
//
//   - POST /subscriptions                      (subscribe to a plan)
//   - GET  /subscriptions/current              (active row, derived state)
//   - POST /subscriptions/{id}/renew           (extend by one plan duration)
//   - POST /subscriptions/{id}/cancel          (cancel)
//   - PUT  /subscriptions/{id}/auto-renewal    (toggle auto-renewal flag)
//   - GET  /quota                              (quota snapshot)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lead-marketplace/internal/services"
)

// SubscribeRequest is the JSON payload for subscribing to a plan.
type SubscribeRequest struct {
	PlanID string `json:"plan_id" binding:"required,min=1,max=64" example:"starter"`
}

// AutoRenewalRequest toggles auto-renewal. Enabled is a pointer so that an
// explicit false is distinguishable from a missing field.
type AutoRenewalRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"true"`
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Subscribe to a plan
// @Description Replaces any active subscription and resets all quota counters to the new plan's limits.
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
// @Param       X-Vendor-ID  header  string                     true  "Vendor ID"
// @Param       body         body    handlers.SubscribeRequest  true  "Plan"
// @Success     201  {object}  services.SubscriptionView
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse "Vendor unknown or deactivated"
// @Failure     404  {object}  handlers.ErrorResponse "Plan not found"
// @Failure     503  {object}  handlers.ErrorResponse "Concurrent subscribe, try again"
// @Router      /subscriptions [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "plan_id is required")
		return
	}
	sub, err := h.ent.Subscribe(c.Request.Context(), vendorID(c), req.PlanID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, sub)
}

// GetCurrentSubscription godoc
// @ID          getCurrentSubscription
// @Summary     Get the current subscription
// @Description is_active and days_remaining are derived at read time; an ACTIVE row past its end date reports is_active=false.
// @Tags        Subscriptions
// @Produce     json
// @Param       X-Vendor-ID  header  string  true  "Vendor ID"
// @Success     200  {object}  services.SubscriptionView
// @Failure     404  {object}  handlers.ErrorResponse "No subscription"
// @Router      /subscriptions/current [get]
func (h *Handlers) GetCurrentSubscription(c *gin.Context) {
	sub, err := h.ent.GetCurrentSubscription(c.Request.Context(), vendorID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sub)
}

// RenewSubscription godoc
// @ID          renewSubscription
// @Summary     Renew a subscription
// @Description Extends end_date by one plan duration, from end_date when still running, otherwise from now. Quota counters are unchanged.
// @Tags        Subscriptions
// @Produce     json
// @Param       X-Vendor-ID  header  string  true  "Vendor ID"
// @Param       id           path    string  true  "Subscription ID"
// @Success     200  {object}  services.SubscriptionView
// @Failure     404  {object}  handlers.ErrorResponse "Subscription not found"
// @Failure     409  {object}  handlers.ErrorResponse "Subscription not active"
// @Router      /subscriptions/{id}/renew [post]
func (h *Handlers) RenewSubscription(c *gin.Context) {
	h.subscriptionAction(c, h.ent.Renew)
}

// CancelSubscription godoc
// @ID          cancelSubscription
// @Summary     Cancel a subscription
// @Description The vendor becomes unentitled immediately.
// @Tags        Subscriptions
// @Produce     json
// @Param       X-Vendor-ID  header  string  true  "Vendor ID"
// @Param       id           path    string  true  "Subscription ID"
// @Success     200  {object}  services.SubscriptionView
// @Failure     404  {object}  handlers.ErrorResponse "Subscription not found"
// @Failure     409  {object}  handlers.ErrorResponse "Subscription not active"
// @Router      /subscriptions/{id}/cancel [post]
func (h *Handlers) CancelSubscription(c *gin.Context) {
	h.subscriptionAction(c, h.ent.Cancel)
}

func (h *Handlers) subscriptionAction(c *gin.Context, fn func(ctx context.Context, vendorID, subscriptionID string) (*services.SubscriptionView, error)) {
	sub, err := fn(c.Request.Context(), vendorID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sub)
}

// SetAutoRenewal godoc
// @ID          setAutoRenewal
// @Summary     Toggle auto-renewal
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
// @Param       X-Vendor-ID  header  string                       true  "Vendor ID"
// @Param       id           path    string                       true  "Subscription ID"
// @Param       body         body    handlers.AutoRenewalRequest  true  "Flag"
// @Success     200  {object}  services.SubscriptionView
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Subscription not found"
// @Router      /subscriptions/{id}/auto-renewal [put]
func (h *Handlers) SetAutoRenewal(c *gin.Context) {
	var req AutoRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "enabled is required")
		return
	}
	sub, err := h.ent.SetAutoRenewal(c.Request.Context(), vendorID(c), c.Param("id"), *req.Enabled)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sub)
}

// GetQuota godoc
// @ID          getQuota
// @Summary     Get the quota snapshot
// @Description Used, limit, remaining and next reset per window, plus top-up balance. Window rollovers due at read time are applied first.
// @Tags        Quota
// @Produce     json
// @Param       X-Vendor-ID  header  string  true  "Vendor ID"
// @Success     200  {object}  services.QuotaSnapshot
// @Failure     401  {object}  handlers.ErrorResponse "Missing vendor"
// @Router      /quota [get]
func (h *Handlers) GetQuota(c *gin.Context) {
	snap, err := h.ent.GetQuotaSnapshot(c.Request.Context(), vendorID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, snap)
}
