// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the per-vendor
// VendorLeadQuota row.
//
// Every write bumps Version. Writers that depend on what they read use the
// compare-and-set helpers and retry on (false, nil).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// GetQuota fetches the vendor's quota row, or ErrNotFound.
func GetQuota(ctx context.Context, db *gorm.DB, vendorID string) (*domain.VendorLeadQuota, error) {
	var q domain.VendorLeadQuota
	if err := db.WithContext(ctx).First(&q, "vendor_id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ResetQuota creates or re-initializes the vendor's quota row with the limits
// and counters in q.
func ResetQuota(ctx context.Context, db *gorm.DB, q *domain.VendorLeadQuota) error {
	q.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"daily_used":      q.DailyUsed,
				"daily_limit":     q.DailyLimit,
				"weekly_used":     q.WeeklyUsed,
				"weekly_limit":    q.WeeklyLimit,
				"yearly_used":     q.YearlyUsed,
				"yearly_limit":    q.YearlyLimit,
				"last_reset_date": q.LastResetDate,
				"updated_at":      q.UpdatedAt,
				"version":         gorm.Expr("vendor_lead_quotas.version + 1"),
			}),
		}).
		Create(q).Error
}

// SaveRollover persists the counters of a rolled-over row when the stored
// row is still at q.Version. On success q.Version is advanced.
func SaveRollover(ctx context.Context, db *gorm.DB, q *domain.VendorLeadQuota) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.VendorLeadQuota{}).
		Where("vendor_id = ? AND version = ?", q.VendorID, q.Version).
		Updates(map[string]any{
			"daily_used":      q.DailyUsed,
			"weekly_used":     q.WeeklyUsed,
			"yearly_used":     q.YearlyUsed,
			"last_reset_date": q.LastResetDate,
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil || res.RowsAffected != 1 {
		return false, res.Error
	}
	q.Version++
	return true, nil
}

// IncrementQuota charges one lead against all three windows, only when the
// row is still at version and every window has headroom.
func IncrementQuota(ctx context.Context, db *gorm.DB, vendorID string, version int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.VendorLeadQuota{}).
		Where("vendor_id = ? AND version = ?", vendorID, version).
		Where("daily_used < daily_limit AND weekly_used < weekly_limit AND yearly_used < yearly_limit").
		Updates(map[string]any{
			"daily_used":  gorm.Expr("daily_used + 1"),
			"weekly_used": gorm.Expr("weekly_used + 1"),
			"yearly_used": gorm.Expr("yearly_used + 1"),
			"version":     gorm.Expr("version + 1"),
		})
	return res.RowsAffected == 1, res.Error
}
