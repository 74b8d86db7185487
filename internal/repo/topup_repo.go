package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// GetTopUp fetches the vendor's top-up pool, or ErrNotFound.
func GetTopUp(ctx context.Context, db *gorm.DB, vendorID string) (*domain.VendorAdditionalLeads, error) {
	var t domain.VendorAdditionalLeads
	if err := db.WithContext(ctx).First(&t, "vendor_id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// AddTopUp credits leads to the vendor's pool, creating it on first use, and
// returns the updated row.
func AddTopUp(ctx context.Context, db *gorm.DB, vendorID string, leads int, amount float64) (*domain.VendorAdditionalLeads, error) {
	now := time.Now().UTC()
	row := &domain.VendorAdditionalLeads{
		ID:             uuid.NewString(),
		VendorID:       vendorID,
		LeadsPurchased: leads,
		LeadsRemaining: leads,
		AmountPaid:     amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"leads_purchased": gorm.Expr("vendor_additional_leads.leads_purchased + ?", leads),
				"leads_remaining": gorm.Expr("vendor_additional_leads.leads_remaining + ?", leads),
				"amount_paid":     gorm.Expr("vendor_additional_leads.amount_paid + ?", amount),
				"updated_at":      now,
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return GetTopUp(ctx, db, vendorID)
}

// ConsumeTopUp takes one lead from the vendor's pool. It returns false when
// the pool is missing or empty.
func ConsumeTopUp(ctx context.Context, db *gorm.DB, vendorID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.VendorAdditionalLeads{}).
		Where("vendor_id = ? AND leads_remaining > 0", vendorID).
		Update("leads_remaining", gorm.Expr("leads_remaining - 1"))
	return res.RowsAffected == 1, res.Error
}
