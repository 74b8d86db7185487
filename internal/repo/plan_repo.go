package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// ListPlans returns every plan, cheapest first.
func ListPlans(ctx context.Context, db *gorm.DB) ([]domain.Plan, error) {
	var out []domain.Plan
	err := db.WithContext(ctx).Order("price ASC, id ASC").Find(&out).Error
	return out, err
}

// GetPlan fetches a plan by ID, or ErrNotFound.
func GetPlan(ctx context.Context, db *gorm.DB, id string) (*domain.Plan, error) {
	var p domain.Plan
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
