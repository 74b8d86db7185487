// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model
// and the two read-only views derived from it:
//
//   - the marketplace view of a vendor: AVAILABLE leads with no owning vendor
//     that the vendor has not purchased yet;
//   - the direct view of a vendor: leads whose owning_vendor_id is the vendor.
//
// Ordering is by recency (created_at DESC, id DESC) so pagination is stable.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// CreateLead inserts l, assigning an ID and CreatedAt when unset.
func CreateLead(ctx context.Context, db *gorm.DB, l *domain.Lead) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.Status == "" {
		l.Status = domain.LeadStatusAvailable
	}
	return db.WithContext(ctx).Create(l).Error
}

// GetLead fetches a lead by ID, or ErrNotFound.
func GetLead(ctx context.Context, db *gorm.DB, id string) (*domain.Lead, error) {
	var l domain.Lead
	if err := db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func marketplaceScope(ctx context.Context, db *gorm.DB, vendorID string) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("leads.owning_vendor_id IS NULL").
		Where("leads.status = ?", domain.LeadStatusAvailable).
		Where("NOT EXISTS (SELECT 1 FROM lead_purchases p WHERE p.lead_id = leads.id AND p.vendor_id = ?)", vendorID)
}

// ListMarketplaceLeads returns a page of the vendor's marketplace view,
// newest first.
func ListMarketplaceLeads(ctx context.Context, db *gorm.DB, vendorID string, offset, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	err := marketplaceScope(ctx, db, vendorID).
		Order("leads.created_at DESC, leads.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountMarketplaceLeads returns the size of the vendor's marketplace view.
func CountMarketplaceLeads(ctx context.Context, db *gorm.DB, vendorID string) (int64, error) {
	var n int64
	err := marketplaceScope(ctx, db, vendorID).Count(&n).Error
	return n, err
}

func directScope(ctx context.Context, db *gorm.DB, vendorID string) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("owning_vendor_id = ?", vendorID)
}

// ListDirectLeads returns the first limit leads addressed to vendorID,
// newest first.
func ListDirectLeads(ctx context.Context, db *gorm.DB, vendorID string, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	err := directScope(ctx, db, vendorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountDirectLeads returns how many leads are addressed to vendorID.
func CountDirectLeads(ctx context.Context, db *gorm.DB, vendorID string) (int64, error) {
	var n int64
	err := directScope(ctx, db, vendorID).Count(&n).Error
	return n, err
}
