// Vendor, plan and top-up HTTP handlers.
//
//   - POST /vendors                 (register)
//   - GET  /vendors/me              (caller's account)
//   - POST /vendors/me/deactivate   (deactivate caller)
//   - GET  /plans                   (plan catalog)
//   - POST /topups                  (buy additional leads)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// CreateVendorRequest is the JSON payload for registering a vendor.
type CreateVendorRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255" example:"Shree Steel Traders"`
}

// ListPlansResponse wraps the plan catalog.
type ListPlansResponse struct {
	Plans []domain.Plan `json:"plans"`
}

// BuyTopUpRequest is the JSON payload for buying additional leads.
type BuyTopUpRequest struct {
	Leads  int     `json:"leads"  binding:"required,min=1,max=10000" example:"20"`
	Amount float64 `json:"amount" binding:"min=0" example:"99"`
}

// CreateVendor godoc
// @ID          createVendor
// @Summary     Register a vendor
// @Tags        Vendors
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateVendorRequest  true  "Vendor"
// @Success     201   {object}  domain.Vendor
// @Failure     400   {object}  handlers.ErrorResponse "Bad request"
// @Failure     500   {object}  handlers.ErrorResponse "Internal error"
// @Router      /vendors [post]
func (h *Handlers) CreateVendor(c *gin.Context) {
	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name is required")
		return
	}
	v, err := h.vendors.Create(c.Request.Context(), req.Name)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, v)
}

// GetMe godoc
// @ID          getVendorMe
// @Summary     Get the calling vendor
// @Tags        Vendors
// @Produce     json
// @Param       X-Vendor-ID  header  string  true  "Vendor ID"
// @Success     200  {object}  domain.Vendor
// @Failure     401  {object}  handlers.ErrorResponse "Missing vendor"
// @Failure     404  {object}  handlers.ErrorResponse "Vendor not found"
// @Router      /vendors/me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	v, err := h.vendors.Get(c.Request.Context(), vendorID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// DeactivateMe godoc
// @ID          deactivateVendorMe
// @Summary     Deactivate the calling vendor
// @Description Deactivated vendors keep their history but can no longer subscribe or purchase.
// @Tags        Vendors
// @Param       X-Vendor-ID  header  string  true  "Vendor ID"
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse "Missing vendor"
// @Failure     404  {object}  handlers.ErrorResponse "Vendor not found"
// @Router      /vendors/me/deactivate [post]
func (h *Handlers) DeactivateMe(c *gin.Context) {
	if err := h.vendors.Deactivate(c.Request.Context(), vendorID(c)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListPlans godoc
// @ID          listPlans
// @Summary     List subscription plans
// @Tags        Plans
// @Produce     json
// @Success     200  {object}  handlers.ListPlansResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /plans [get]
func (h *Handlers) ListPlans(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListPlansResponse{Plans: plans})
}

// BuyTopUp godoc
// @ID          buyTopUp
// @Summary     Buy additional leads
// @Description Adds leads to the vendor's top-up pool. The pool is drawn from only when a quota window is exhausted.
// @Tags        TopUps
// @Accept      json
// @Produce     json
// @Param       X-Vendor-ID  header  string                   true  "Vendor ID"
// @Param       body         body    handlers.BuyTopUpRequest  true  "Top-up"
// @Success     201  {object}  domain.VendorAdditionalLeads
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse "Vendor not entitled"
// @Router      /topups [post]
func (h *Handlers) BuyTopUp(c *gin.Context) {
	var req BuyTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "leads must be at least 1 and amount non-negative")
		return
	}
	row, err := h.topups.Buy(c.Request.Context(), vendorID(c), req.Leads, req.Amount)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, row)
}
