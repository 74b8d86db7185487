// Package services – CatalogService
//
// This file implements the Lead Catalog: lead intake (marketplace and
// Direct), the vendor's marketplace view, the vendor's owned view (Direct
// plus purchased), and single-lead reads with visibility classification.
//
// Every lead leaving this service has passed through DisclosureService;
// contact fields are blanked unless the vendor may see them.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
	"github.com/tbourn/go-lead-marketplace/internal/search"
	"github.com/tbourn/go-lead-marketplace/internal/utils"
)

const defaultScanLimit = 500

var leadRanker = search.NewRanker(search.WithStopwords(search.DefaultStopwords))

// CatalogService reads and writes leads.
type CatalogService struct {
	DB         *gorm.DB
	Disclosure *DisclosureService

	// ScanLimit caps how many marketplace candidates are ranked when a
	// relevance query is given.
	ScanLimit int

	// Locale drives category casing. language.Und falls back to English.
	Locale language.Tag

	Clock Clock
}

// LeadInput carries the fields of a new lead.
type LeadInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Quantity    string
	Budget      string
	Price       float64
	BuyerName   string
	BuyerEmail  string
	BuyerPhone  string
}

// LeadView is a lead as seen by one vendor.
type LeadView struct {
	domain.Lead
	Visibility domain.LeadVisibility `json:"visibility"`
	Revealed   bool                  `json:"revealed"`
	AcquiredAt *time.Time            `json:"acquired_at,omitempty"`
	Score      float64               `json:"score,omitempty"`
}

func (s *CatalogService) tracer(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/CatalogService").Start(ctx, name, trace.WithAttributes(attrs...))
}

// CreateMarketplaceLead registers a buyer requirement open to every vendor.
func (s *CatalogService) CreateMarketplaceLead(ctx context.Context, in LeadInput) (*domain.Lead, error) {
	ctx, span := s.tracer(ctx, "CreateMarketplaceLead")
	defer span.End()

	l, err := s.buildLead(in)
	if err != nil {
		return nil, err
	}
	l.Status = domain.LeadStatusAvailable
	if err := repo.CreateLead(ctx, s.DB, l); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("lead_id", l.ID).Str("category", l.Category).Msg("marketplace lead created")
	return l, nil
}

// CreateDirectLead registers a lead addressed to owningVendorID only.
func (s *CatalogService) CreateDirectLead(ctx context.Context, owningVendorID string, in LeadInput) (*domain.Lead, error) {
	ctx, span := s.tracer(ctx, "CreateDirectLead", attribute.String("vendor.id", owningVendorID))
	defer span.End()

	if err := requireActiveVendor(ctx, s.DB, owningVendorID); err != nil {
		return nil, err
	}
	l, err := s.buildLead(in)
	if err != nil {
		return nil, err
	}
	owner := owningVendorID
	l.OwningVendorID = &owner
	l.Status = domain.LeadStatusAssigned
	if err := repo.CreateLead(ctx, s.DB, l); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("lead_id", l.ID).Str("vendor_id", owningVendorID).Msg("direct lead created")
	return l, nil
}

func (s *CatalogService) buildLead(in LeadInput) (*domain.Lead, error) {
	title := collapseSpaces(in.Title)
	if title == "" || in.Price < 0 {
		return nil, ErrInvalidLead
	}
	loc := s.Locale
	if loc == language.Und {
		loc = language.English
	}
	category := collapseSpaces(in.Category)
	if category != "" {
		category = cases.Title(loc).String(category)
	}
	return &domain.Lead{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Location:    collapseSpaces(in.Location),
		Quantity:    strings.TrimSpace(in.Quantity),
		Budget:      strings.TrimSpace(in.Budget),
		Price:       in.Price,
		BuyerName:   strings.TrimSpace(in.BuyerName),
		BuyerEmail:  strings.ToLower(strings.TrimSpace(in.BuyerEmail)),
		BuyerPhone:  strings.TrimSpace(in.BuyerPhone),
		CreatedAt:   s.Clock.now(),
	}, nil
}

// ListMarketplace returns one page of the vendor's marketplace view: leads
// with no owning vendor that the vendor has not purchased. Without q the
// order is newest first; with q the first ScanLimit candidates are ranked by
// token similarity and non-matching leads are dropped.
func (s *CatalogService) ListMarketplace(ctx context.Context, vendorID string, page, pageSize int, q string) ([]LeadView, int64, error) {
	ctx, span := s.tracer(ctx, "ListMarketplace",
		attribute.String("vendor.id", vendorID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
		attribute.Bool("ranked", strings.TrimSpace(q) != ""),
	)
	defer span.End()

	offset := utils.Offset(page, pageSize)
	if strings.TrimSpace(q) == "" {
		total, err := repo.CountMarketplaceLeads(ctx, s.DB, vendorID)
		if err != nil {
			return nil, 0, err
		}
		leads, err := repo.ListMarketplaceLeads(ctx, s.DB, vendorID, offset, pageSize)
		if err != nil {
			return nil, 0, err
		}
		out := make([]LeadView, 0, len(leads))
		for _, l := range leads {
			out = append(out, marketplaceView(l, 0))
		}
		return out, total, nil
	}

	limit := s.ScanLimit
	if limit <= 0 {
		limit = defaultScanLimit
	}
	candidates, err := repo.ListMarketplaceLeads(ctx, s.DB, vendorID, 0, limit)
	if err != nil {
		return nil, 0, err
	}
	docs := make([]search.Document, 0, len(candidates))
	byID := make(map[string]domain.Lead, len(candidates))
	for _, l := range candidates {
		docs = append(docs, search.Document{ID: l.ID, Text: leadText(l)})
		byID[l.ID] = l
	}
	ranked := leadRanker.Rank(q, docs)

	total := int64(len(ranked))
	if offset >= len(ranked) {
		return []LeadView{}, total, nil
	}
	end := offset + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	out := make([]LeadView, 0, end-offset)
	for _, r := range ranked[offset:end] {
		out = append(out, marketplaceView(byID[r.ID], r.Score))
	}
	return out, total, nil
}

func marketplaceView(l domain.Lead, score float64) LeadView {
	return LeadView{
		Lead:       Redact(l),
		Visibility: domain.LeadVisibility{Kind: domain.VisibilityMarketplace},
		Score:      score,
	}
}

func leadText(l domain.Lead) string {
	return strings.Join([]string{l.Title, l.Description, l.Category, l.Location}, " ")
}

// ListOwned returns one page of leads the vendor owns, Direct and purchased
// together, most recently acquired first. A Direct lead is acquired when it
// was created; a purchased lead when it was granted.
func (s *CatalogService) ListOwned(ctx context.Context, vendorID string, page, pageSize int) ([]LeadView, int64, error) {
	ctx, span := s.tracer(ctx, "ListOwned",
		attribute.String("vendor.id", vendorID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)
	defer span.End()

	nDirect, err := repo.CountDirectLeads(ctx, s.DB, vendorID)
	if err != nil {
		return nil, 0, err
	}
	nBought, err := repo.CountPurchases(ctx, s.DB, vendorID)
	if err != nil {
		return nil, 0, err
	}
	total := nDirect + nBought

	offset := utils.Offset(page, pageSize)
	need := offset + pageSize
	if int64(offset) >= total {
		return []LeadView{}, total, nil
	}

	direct, err := repo.ListDirectLeads(ctx, s.DB, vendorID, need)
	if err != nil {
		return nil, 0, err
	}
	bought, err := repo.ListPurchasesForVendor(ctx, s.DB, vendorID, need)
	if err != nil {
		return nil, 0, err
	}

	// Both inputs are sorted newest first; merge them.
	merged := make([]LeadView, 0, len(direct)+len(bought))
	i, j := 0, 0
	for len(merged) < need && (i < len(direct) || j < len(bought)) {
		takeDirect := j >= len(bought) ||
			(i < len(direct) && !direct[i].CreatedAt.Before(bought[j].GrantedAt))
		if takeDirect {
			l := direct[i]
			at := l.CreatedAt
			merged = append(merged, s.ownedView(ctx, vendorID, l, nil, at))
			i++
			continue
		}
		p := bought[j]
		at := p.GrantedAt
		merged = append(merged, s.ownedView(ctx, vendorID, p.Lead, &p, at))
		j++
	}

	if offset >= len(merged) {
		return []LeadView{}, total, nil
	}
	return merged[offset:], total, nil
}

func (s *CatalogService) ownedView(ctx context.Context, vendorID string, l domain.Lead, p *domain.LeadPurchase, at time.Time) LeadView {
	v := LeadView{
		Lead:       l,
		Visibility: domain.Classify(vendorID, l, p),
		AcquiredAt: &at,
	}
	v.Revealed = s.Disclosure.CanReveal(ctx, vendorID, &l)
	if !v.Revealed {
		v.Lead = Redact(l)
	}
	return v
}

// GetLead returns a single lead as seen by vendorID. A Direct lead of another
// vendor is reported as ErrLeadNotAvailable, the same as a missing lead.
func (s *CatalogService) GetLead(ctx context.Context, vendorID, leadID string) (*LeadView, error) {
	ctx, span := s.tracer(ctx, "GetLead",
		attribute.String("vendor.id", vendorID),
		attribute.String("lead.id", leadID),
	)
	defer span.End()

	l, err := repo.GetLead(ctx, s.DB, leadID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLeadNotAvailable
	}
	if err != nil {
		return nil, err
	}
	if l.IsDirect() && !l.OwnedBy(vendorID) {
		return nil, ErrLeadNotAvailable
	}

	var purchase *domain.LeadPurchase
	if !l.IsDirect() {
		p, err := repo.GetPurchase(ctx, s.DB, vendorID, leadID)
		switch {
		case err == nil:
			purchase = p
		case !errors.Is(err, repo.ErrNotFound):
			return nil, err
		}
	}

	v := &LeadView{
		Lead:       *l,
		Visibility: domain.Classify(vendorID, *l, purchase),
	}
	switch {
	case purchase != nil:
		at := purchase.GrantedAt
		v.AcquiredAt = &at
	case l.IsDirect():
		at := l.CreatedAt
		v.AcquiredAt = &at
	}
	v.Revealed = s.Disclosure.CanReveal(ctx, vendorID, l)
	if !v.Revealed {
		v.Lead = Redact(*l)
	}
	return v, nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
