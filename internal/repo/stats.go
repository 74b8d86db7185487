// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// MarketplaceStats returns the size of the vendor's marketplace view and the
// newest CreatedAt in it. When the view is empty the timestamp is nil.
func MarketplaceStats(ctx context.Context, db *gorm.DB, vendorID string) (count int64, maxCreatedAt *time.Time, err error) {
	if err = marketplaceScope(ctx, db, vendorID).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = marketplaceScope(ctx, db, vendorID).
		Select("leads.created_at").
		Order("leads.created_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// OwnedStats returns how many leads vendorID owns (direct plus purchased) and
// the most recent acquisition instant, or nil when it owns none.
func OwnedStats(ctx context.Context, db *gorm.DB, vendorID string) (count int64, lastAcquired *time.Time, err error) {
	direct, err := CountDirectLeads(ctx, db, vendorID)
	if err != nil {
		return 0, nil, err
	}
	bought, err := CountPurchases(ctx, db, vendorID)
	if err != nil {
		return 0, nil, err
	}
	count = direct + bought
	if count == 0 {
		return 0, nil, nil
	}

	var last time.Time
	var d struct{ CreatedAt time.Time }
	if direct > 0 {
		if err = directScope(ctx, db, vendorID).Select("created_at").Order("created_at DESC").Limit(1).Scan(&d).Error; err != nil {
			return 0, nil, err
		}
		last = d.CreatedAt
	}
	if bought > 0 {
		var p struct{ GrantedAt time.Time }
		if err = db.WithContext(ctx).Model(&domain.LeadPurchase{}).
			Where("vendor_id = ?", vendorID).
			Select("granted_at").Order("granted_at DESC").Limit(1).
			Scan(&p).Error; err != nil {
			return 0, nil, err
		}
		if p.GrantedAt.After(last) {
			last = p.GrantedAt
		}
	}
	return count, &last, nil
}
