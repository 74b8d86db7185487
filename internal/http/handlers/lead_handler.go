// Lead HTTP handlers.
//
//   - POST /leads               (buyer requirement intake, marketplace lead)
//   - POST /leads/direct        (vendor-owned quotation, Direct lead)
//   - GET  /leads/marketplace   (leads the vendor can buy, ETag support)
//   - GET  /leads/owned         (leads the vendor holds, ETag support)
//   - GET  /leads/{id}          (one lead, contacts only when revealed)
package handlers

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
	"github.com/tbourn/go-lead-marketplace/internal/services"
	"github.com/tbourn/go-lead-marketplace/internal/utils"
)

const (
	defaultLeadPageSize = 20
	maxLeadPageSize     = 100
	maxQueryLen         = 200
)

// CreateLeadRequest is the JSON payload for a new lead.
type CreateLeadRequest struct {
	Title       string  `json:"title"       binding:"required,min=1,max=255" example:"Need 20 tonnes TMT bars"`
	Description string  `json:"description" binding:"max=4000"               example:"Fe 500D, delivery within 2 weeks"`
	Category    string  `json:"category"    binding:"max=128"                example:"steel"`
	Location    string  `json:"location"    binding:"max=255"                example:"Pune"`
	Quantity    string  `json:"quantity"    binding:"max=128"                example:"20 tonnes"`
	Budget      string  `json:"budget"      binding:"max=128"                example:"12 lakh"`
	Price       float64 `json:"price"       binding:"min=0"                  example:"5"`
	BuyerName   string  `json:"buyer_name"  binding:"max=255"                example:"Ravi"`
	BuyerEmail  string  `json:"buyer_email" binding:"omitempty,email,max=255" example:"ravi@example.com"`
	BuyerPhone  string  `json:"buyer_phone" binding:"max=64"                 example:"+91 98765 43210"`
}

func (r CreateLeadRequest) input() services.LeadInput {
	return services.LeadInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Location:    r.Location,
		Quantity:    r.Quantity,
		Budget:      r.Budget,
		Price:       r.Price,
		BuyerName:   r.BuyerName,
		BuyerEmail:  r.BuyerEmail,
		BuyerPhone:  r.BuyerPhone,
	}
}

// ListLeadsResponse contains a page of leads and pagination metadata.
type ListLeadsResponse struct {
	Leads      []services.LeadView `json:"leads"`
	Pagination Pagination          `json:"pagination"`
}

// CreateLead godoc
// @ID          createLead
// @Summary     Submit a buyer requirement
// @Description Creates a marketplace lead visible to every subscribed vendor until they buy it.
// @Tags        Leads
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateLeadRequest  true  "Lead"
// @Success     201   {object}  domain.Lead
// @Failure     400   {object}  handlers.ErrorResponse "Bad request"
// @Router      /leads [post]
func (h *Handlers) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid lead: title is required and buyer_email must be valid")
		return
	}
	l, err := h.catalog.CreateMarketplaceLead(c.Request.Context(), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, l)
}

// CreateDirectLead godoc
// @ID          createDirectLead
// @Summary     Record a Direct lead
// @Description Creates a lead owned by the calling vendor. It never appears on the marketplace and never consumes quota.
// @Tags        Leads
// @Accept      json
// @Produce     json
// @Param       X-Vendor-ID  header  string                      true  "Vendor ID"
// @Param       body         body    handlers.CreateLeadRequest  true  "Lead"
// @Success     201  {object}  domain.Lead
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Vendor not found"
// @Router      /leads/direct [post]
func (h *Handlers) CreateDirectLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid lead: title is required and buyer_email must be valid")
		return
	}
	l, err := h.catalog.CreateDirectLead(c.Request.Context(), vendorID(c), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, l)
}

// ListMarketplace godoc
// @ID          listMarketplace
// @Summary     List purchasable leads
// @Description Marketplace leads the vendor does not own, newest first, or ranked by relevance when q is given. Contact fields are blank.
// @Tags        Leads
// @Produce     json
// @Param       X-Vendor-ID    header  string  true   "Vendor ID"
// @Param       page           query   int     false  "Page number"    minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page" minimum(1) maximum(100) default(20)
// @Param       q              query   string  false  "Relevance query"
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.ListLeadsResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Router      /leads/marketplace [get]
func (h *Handlers) ListMarketplace(c *gin.Context) {
	ctx := c.Request.Context()
	vid := vendorID(c)
	pg := utils.ParsePage(c.Query("page"), c.Query("page_size"), defaultLeadPageSize, maxLeadPageSize)
	q := strings.TrimSpace(c.Query("q"))
	if len(q) > maxQueryLen {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("q too long: max %d bytes", maxQueryLen))
		return
	}

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.MarketplaceStats(ctx, h.db, vid)
		if err == nil {
			purchased, err2 := repo.CountPurchases(ctx, h.db, vid)
			if err2 == nil {
				etag := fmt.Sprintf(`W/"marketplace:%s:%d:%d:%d:%d:%d:%x"`,
					vid, count, unixOrZero(maxTS), purchased, pg.Number, pg.Size, hashString(q))
				if notModified(c, etag) {
					return
				}
			}
		}
	}

	items, total, err := h.catalog.ListMarketplace(ctx, vid, pg.Number, pg.Size, q)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListLeadsResponse{Leads: nonNil(items), Pagination: newPagination(pg, total)})
}

// ListOwned godoc
// @ID          listOwned
// @Summary     List owned leads
// @Description Direct leads of the vendor plus purchased leads, most recently acquired first, with contacts revealed.
// @Tags        Leads
// @Produce     json
// @Param       X-Vendor-ID    header  string  true   "Vendor ID"
// @Param       page           query   int     false  "Page number"    minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page" minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.ListLeadsResponse
// @Success     304  "Not modified"
// @Router      /leads/owned [get]
func (h *Handlers) ListOwned(c *gin.Context) {
	ctx := c.Request.Context()
	vid := vendorID(c)
	pg := utils.ParsePage(c.Query("page"), c.Query("page_size"), defaultLeadPageSize, maxLeadPageSize)

	if h.db != nil {
		if count, last, err := repo.OwnedStats(ctx, h.db, vid); err == nil {
			etag := fmt.Sprintf(`W/"owned:%s:%d:%d:%d:%d"`, vid, count, unixOrZero(last), pg.Number, pg.Size)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.catalog.ListOwned(ctx, vid, pg.Number, pg.Size)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListLeadsResponse{Leads: nonNil(items), Pagination: newPagination(pg, total)})
}

// GetLead godoc
// @ID          getLead
// @Summary     Get a lead
// @Description Buyer contact fields are filled only when the vendor owns the lead.
// @Tags        Leads
// @Produce     json
// @Param       X-Vendor-ID  header  string  true  "Vendor ID"
// @Param       id           path    string  true  "Lead ID"
// @Success     200  {object}  services.LeadView
// @Failure     404  {object}  handlers.ErrorResponse "Lead not available"
// @Router      /leads/{id} [get]
func (h *Handlers) GetLead(c *gin.Context) {
	v, err := h.catalog.GetLead(c.Request.Context(), vendorID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// notModified sets the ETag header and answers 304 when If-None-Match matches.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func nonNil(v []services.LeadView) []services.LeadView {
	if v == nil {
		return []services.LeadView{}
	}
	return v
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// leadView presents a granted lead with its contacts revealed.
func leadView(g *services.Grant) services.LeadView {
	v := services.LeadView{Lead: g.Lead, Visibility: g.Visibility, Revealed: true}
	switch {
	case g.Purchase != nil:
		at := g.Purchase.GrantedAt
		v.AcquiredAt = &at
	case g.Visibility.Kind == domain.VisibilityDirect:
		at := g.Lead.CreatedAt
		v.AcquiredAt = &at
	}
	return v
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}
