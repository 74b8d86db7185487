// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the purchase ledger: an append-only log
// of LeadPurchase rows. The unique (vendor_id, lead_id) index is the
// authority on "already owns"; InsertPurchase reports a violation as
// ErrDuplicate so the check and the insert are a single atomic step.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// InsertPurchase appends p to the ledger. A second grant for the same
// (vendor, lead) pair returns ErrDuplicate.
func InsertPurchase(ctx context.Context, db *gorm.DB, p *domain.LeadPurchase) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// HasPurchased reports whether vendorID holds a grant for leadID.
func HasPurchased(ctx context.Context, db *gorm.DB, vendorID, leadID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.LeadPurchase{}).
		Where("vendor_id = ? AND lead_id = ?", vendorID, leadID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// GetPurchase returns the vendor's grant for leadID, or ErrNotFound.
func GetPurchase(ctx context.Context, db *gorm.DB, vendorID, leadID string) (*domain.LeadPurchase, error) {
	var p domain.LeadPurchase
	err := db.WithContext(ctx).
		Where("vendor_id = ? AND lead_id = ?", vendorID, leadID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPurchaseByID returns a grant owned by vendorID, or ErrNotFound.
func GetPurchaseByID(ctx context.Context, db *gorm.DB, vendorID, id string) (*domain.LeadPurchase, error) {
	var p domain.LeadPurchase
	err := db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPurchasesForVendor returns the first limit grants of vendorID with
// their leads preloaded, most recent first.
func ListPurchasesForVendor(ctx context.Context, db *gorm.DB, vendorID string, limit int) ([]domain.LeadPurchase, error) {
	var out []domain.LeadPurchase
	err := db.WithContext(ctx).
		Preload("Lead").
		Where("vendor_id = ?", vendorID).
		Order("granted_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPurchases returns how many grants vendorID holds.
func CountPurchases(ctx context.Context, db *gorm.DB, vendorID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.LeadPurchase{}).
		Where("vendor_id = ?", vendorID).
		Count(&n).Error
	return n, err
}
