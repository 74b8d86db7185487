package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
)

// DefaultPlans is the catalog seeded on startup.
var DefaultPlans = []domain.Plan{
	{ID: "starter", Name: "Starter", DailyLimit: 2, WeeklyLimit: 10, YearlyLimit: 100, DurationDays: 30, Price: 49},
	{ID: "growth", Name: "Growth", DailyLimit: 10, WeeklyLimit: 50, YearlyLimit: 1000, DurationDays: 30, Price: 149},
	{ID: "enterprise", Name: "Enterprise", DailyLimit: 50, WeeklyLimit: 250, YearlyLimit: 10000, DurationDays: 365, Price: 1490},
}

// PlanService exposes the plan catalog.
type PlanService struct {
	DB *gorm.DB
}

// Seed inserts DefaultPlans that are not in the store yet.
func (s *PlanService) Seed(ctx context.Context) error {
	return repo.SeedPlans(ctx, s.DB, DefaultPlans)
}

// List returns every plan, cheapest first.
func (s *PlanService) List(ctx context.Context) ([]domain.Plan, error) {
	return repo.ListPlans(ctx, s.DB)
}

// Get returns one plan, or ErrPlanNotFound.
func (s *PlanService) Get(ctx context.Context, id string) (*domain.Plan, error) {
	p, err := repo.GetPlan(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	return p, err
}
