// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vendor model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// CreateVendor inserts a new active vendor with a UUID primary key.
func CreateVendor(ctx context.Context, db *gorm.DB, name string) (*domain.Vendor, error) {
	now := time.Now().UTC()
	v := &domain.Vendor{
		ID:        uuid.NewString(),
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// GetVendor fetches a vendor by ID, or ErrNotFound.
func GetVendor(ctx context.Context, db *gorm.DB, id string) (*domain.Vendor, error) {
	var v domain.Vendor
	if err := db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// SetVendorActive toggles the active flag. Returns ErrNotFound when no row matched.
func SetVendorActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Vendor{}).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
