// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for
// VendorPlanSubscription rows.
//
// In-place updates are compare-and-set on the Version column: callers pass
// the version they read and receive (false, nil) when another writer got
// there first.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// FindActiveSubscription returns the vendor's row with status ACTIVE, whether
// or not its end date has passed, or ErrNotFound.
func FindActiveSubscription(ctx context.Context, db *gorm.DB, vendorID string) (*domain.VendorPlanSubscription, error) {
	var s domain.VendorPlanSubscription
	err := db.WithContext(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, domain.SubscriptionActive).
		Order("end_date DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSubscription fetches a subscription owned by vendorID, or ErrNotFound.
func GetSubscription(ctx context.Context, db *gorm.DB, id, vendorID string) (*domain.VendorPlanSubscription, error) {
	var s domain.VendorPlanSubscription
	if err := db.WithContext(ctx).First(&s, "id = ? AND vendor_id = ?", id, vendorID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// DeactivateSubscriptions flips every ACTIVE row of vendorID to INACTIVE.
func DeactivateSubscriptions(ctx context.Context, db *gorm.DB, vendorID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.VendorPlanSubscription{}).
		Where("vendor_id = ? AND status = ?", vendorID, domain.SubscriptionActive).
		Updates(map[string]any{
			"status":  domain.SubscriptionInactive,
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

// InsertSubscription appends s, assigning an ID when unset. A second ACTIVE
// row for the same vendor is rejected by the partial unique index and
// reported as ErrDuplicate.
func InsertSubscription(ctx context.Context, db *gorm.DB, s *domain.VendorPlanSubscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := db.WithContext(ctx).Create(s).Error
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// ExtendSubscription moves end_date to newEnd when the row is still ACTIVE
// at version.
func ExtendSubscription(ctx context.Context, db *gorm.DB, id string, version int64, newEnd time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.VendorPlanSubscription{}).
		Where("id = ? AND version = ? AND status = ?", id, version, domain.SubscriptionActive).
		Updates(map[string]any{
			"end_date": newEnd,
			"version":  gorm.Expr("version + 1"),
		})
	return res.RowsAffected == 1, res.Error
}

// TransitionSubscription moves the row from status from to status to when it
// is still at version.
func TransitionSubscription(ctx context.Context, db *gorm.DB, id string, version int64, from, to domain.SubscriptionStatus) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.VendorPlanSubscription{}).
		Where("id = ? AND version = ? AND status = ?", id, version, from).
		Updates(map[string]any{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected == 1, res.Error
}

// SetAutoRenewal updates the auto-renewal flag. Returns ErrNotFound when no
// row matched.
func SetAutoRenewal(ctx context.Context, db *gorm.DB, id, vendorID string, enabled bool) error {
	res := db.WithContext(ctx).
		Model(&domain.VendorPlanSubscription{}).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		Updates(map[string]any{
			"auto_renewal_enabled": enabled,
			"version":              gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
