// Package services – EntitlementService
//
// This file implements the Entitlement Store: subscription lifecycle
// (subscribe, renew, cancel, auto-renewal) and the vendor's quota row,
// including the lazy window rollover applied on every quota read.
//
// Expiry is never written. A subscription is active only while its status is
// ACTIVE and its end date lies in the future; an ACTIVE row past its end date
// is reported as not entitled without being mutated.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
)

// maxRolloverAttempts bounds the compare-and-set loop of a lazy rollover.
const maxRolloverAttempts = 5

// EntitlementService owns subscriptions and quota counters.
type EntitlementService struct {
	DB *gorm.DB

	// Location is the zone quota window boundaries are evaluated in.
	// Nil means UTC.
	Location *time.Location

	Clock Clock
}

// SubscriptionView is a subscription row with its derived state.
type SubscriptionView struct {
	domain.VendorPlanSubscription
	IsActive      bool `json:"is_active"`
	DaysRemaining int  `json:"days_remaining"`
}

// WindowUsage is one quota window in a snapshot.
type WindowUsage struct {
	Window    domain.Window `json:"window"`
	Used      int           `json:"used"`
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	ResetsAt  time.Time     `json:"resets_at"`
}

// QuotaSnapshot is the read model of a vendor's purchasing headroom.
type QuotaSnapshot struct {
	VendorID           string        `json:"vendor_id"`
	PlanID             string        `json:"plan_id,omitempty"`
	SubscriptionActive bool          `json:"subscription_active"`
	SubscriptionEndsAt *time.Time    `json:"subscription_ends_at,omitempty"`
	Windows            []WindowUsage `json:"windows"`
	TopUpRemaining     int           `json:"topup_remaining"`
	LastResetDate      time.Time     `json:"last_reset_date"`
}

func (s *EntitlementService) tracer(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/EntitlementService").Start(ctx, name, trace.WithAttributes(attrs...))
}

// GetActiveSubscription returns the vendor's subscription when it is ACTIVE
// and unexpired, otherwise ErrNotEntitled.
func (s *EntitlementService) GetActiveSubscription(ctx context.Context, vendorID string) (*domain.VendorPlanSubscription, error) {
	ctx, span := s.tracer(ctx, "GetActiveSubscription", attribute.String("vendor.id", vendorID))
	defer span.End()

	return s.activeSubscription(ctx, s.DB, vendorID)
}

func (s *EntitlementService) activeSubscription(ctx context.Context, db *gorm.DB, vendorID string) (*domain.VendorPlanSubscription, error) {
	sub, err := repo.FindActiveSubscription(ctx, db, vendorID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotEntitled
	}
	if err != nil {
		return nil, err
	}
	if !sub.IsActiveAt(s.Clock.now()) {
		return nil, ErrNotEntitled
	}
	return sub, nil
}

// GetCurrentSubscription returns the vendor's ACTIVE row with derived
// activity, including rows whose end date has passed.
func (s *EntitlementService) GetCurrentSubscription(ctx context.Context, vendorID string) (*SubscriptionView, error) {
	ctx, span := s.tracer(ctx, "GetCurrentSubscription", attribute.String("vendor.id", vendorID))
	defer span.End()

	sub, err := repo.FindActiveSubscription(ctx, s.DB, vendorID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.view(sub), nil
}

func (s *EntitlementService) view(sub *domain.VendorPlanSubscription) *SubscriptionView {
	now := s.Clock.now()
	return &SubscriptionView{
		VendorPlanSubscription: *sub,
		IsActive:               sub.IsActiveAt(now),
		DaysRemaining:          sub.DaysRemaining(now),
	}
}

// Subscribe moves the vendor onto planID. In one transaction it deactivates
// any ACTIVE row, inserts a new ACTIVE row ending one plan duration from now,
// and re-initializes the quota row with the plan's limits and zero usage.
//
// A concurrent subscribe that loses the partial unique index race gets
// ErrConcurrencyConflict; the store never holds two ACTIVE rows.
func (s *EntitlementService) Subscribe(ctx context.Context, vendorID, planID string) (*SubscriptionView, error) {
	ctx, span := s.tracer(ctx, "Subscribe",
		attribute.String("vendor.id", vendorID),
		attribute.String("plan.id", planID),
	)
	defer span.End()

	now := s.Clock.now()
	var sub *domain.VendorPlanSubscription
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveVendor(ctx, tx, vendorID); err != nil {
			return err
		}
		plan, err := repo.GetPlan(ctx, tx, planID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPlanNotFound
		}
		if err != nil {
			return err
		}

		if _, err := repo.DeactivateSubscriptions(ctx, tx, vendorID); err != nil {
			return err
		}
		sub = &domain.VendorPlanSubscription{
			VendorID:  vendorID,
			PlanID:    plan.ID,
			StartDate: now,
			EndDate:   now.Add(plan.Duration()),
			Status:    domain.SubscriptionActive,
		}
		if err := repo.InsertSubscription(ctx, tx, sub); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrConcurrencyConflict
			}
			return err
		}
		return repo.ResetQuota(ctx, tx, &domain.VendorLeadQuota{
			VendorID:      vendorID,
			DailyLimit:    plan.DailyLimit,
			WeeklyLimit:   plan.WeeklyLimit,
			YearlyLimit:   plan.YearlyLimit,
			LastResetDate: now,
		})
	})
	if err != nil {
		if repo.IsBusy(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("vendor_id", vendorID).
		Str("plan_id", planID).
		Time("end_date", sub.EndDate).
		Msg("subscribed")
	return s.view(sub), nil
}

// Renew extends an ACTIVE subscription by one plan duration. The extension
// starts from the current end date so early renewal keeps the remaining paid
// time; a row whose end date already passed restarts from now.
func (s *EntitlementService) Renew(ctx context.Context, vendorID, subscriptionID string) (*SubscriptionView, error) {
	ctx, span := s.tracer(ctx, "Renew",
		attribute.String("vendor.id", vendorID),
		attribute.String("subscription.id", subscriptionID),
	)
	defer span.End()

	for attempt := 0; attempt < maxRolloverAttempts; attempt++ {
		sub, err := s.ownedSubscription(ctx, vendorID, subscriptionID)
		if err != nil {
			return nil, err
		}
		if sub.Status != domain.SubscriptionActive {
			return nil, ErrSubscriptionNotActive
		}
		plan, err := repo.GetPlan(ctx, s.DB, sub.PlanID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		if err != nil {
			return nil, err
		}

		base := sub.EndDate
		if now := s.Clock.now(); base.Before(now) {
			base = now
		}
		newEnd := base.Add(plan.Duration())
		ok, err := repo.ExtendSubscription(ctx, s.DB, sub.ID, sub.Version, newEnd)
		if err != nil {
			return nil, err
		}
		if ok {
			sub.EndDate = newEnd
			sub.Version++
			zerolog.Ctx(ctx).Info().
				Str("vendor_id", vendorID).
				Str("subscription_id", sub.ID).
				Time("end_date", newEnd).
				Msg("subscription renewed")
			return s.view(sub), nil
		}
	}
	return nil, ErrConcurrencyConflict
}

// Cancel moves an ACTIVE subscription to CANCELLED. The vendor is not
// entitled from then on.
func (s *EntitlementService) Cancel(ctx context.Context, vendorID, subscriptionID string) (*SubscriptionView, error) {
	ctx, span := s.tracer(ctx, "Cancel",
		attribute.String("vendor.id", vendorID),
		attribute.String("subscription.id", subscriptionID),
	)
	defer span.End()

	for attempt := 0; attempt < maxRolloverAttempts; attempt++ {
		sub, err := s.ownedSubscription(ctx, vendorID, subscriptionID)
		if err != nil {
			return nil, err
		}
		if !sub.Status.CanTransition(domain.SubscriptionCancelled) {
			return nil, ErrSubscriptionNotActive
		}
		ok, err := repo.TransitionSubscription(ctx, s.DB, sub.ID, sub.Version, sub.Status, domain.SubscriptionCancelled)
		if err != nil {
			return nil, err
		}
		if ok {
			sub.Status = domain.SubscriptionCancelled
			sub.Version++
			zerolog.Ctx(ctx).Info().
				Str("vendor_id", vendorID).
				Str("subscription_id", sub.ID).
				Msg("subscription cancelled")
			return s.view(sub), nil
		}
	}
	return nil, ErrConcurrencyConflict
}

// SetAutoRenewal records the vendor's auto-renewal preference.
func (s *EntitlementService) SetAutoRenewal(ctx context.Context, vendorID, subscriptionID string, enabled bool) (*SubscriptionView, error) {
	ctx, span := s.tracer(ctx, "SetAutoRenewal",
		attribute.String("vendor.id", vendorID),
		attribute.String("subscription.id", subscriptionID),
		attribute.Bool("enabled", enabled),
	)
	defer span.End()

	if err := repo.SetAutoRenewal(ctx, s.DB, subscriptionID, vendorID, enabled); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	sub, err := s.ownedSubscription(ctx, vendorID, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.view(sub), nil
}

func (s *EntitlementService) ownedSubscription(ctx context.Context, vendorID, subscriptionID string) (*domain.VendorPlanSubscription, error) {
	sub, err := repo.GetSubscription(ctx, s.DB, subscriptionID, vendorID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, err
}

// CurrentQuota returns the vendor's quota row after applying the lazy window
// rollover. A vendor that never subscribed has no row and gets ErrNotEntitled.
func (s *EntitlementService) CurrentQuota(ctx context.Context, vendorID string) (*domain.VendorLeadQuota, error) {
	return s.currentQuota(ctx, s.DB, vendorID)
}

// currentQuota reads the row and, when a window boundary has passed, writes
// the rollover with compare-and-set on Version. Losing the race means another
// request already rolled (or charged) the row, so it simply re-reads.
func (s *EntitlementService) currentQuota(ctx context.Context, db *gorm.DB, vendorID string) (*domain.VendorLeadQuota, error) {
	for attempt := 0; attempt < maxRolloverAttempts; attempt++ {
		q, err := repo.GetQuota(ctx, db, vendorID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotEntitled
		}
		if err != nil {
			return nil, err
		}

		rolled, changed := q.Rollover(s.Clock.now(), s.Location)
		if !changed {
			return q, nil
		}
		ok, err := repo.SaveRollover(ctx, db, &rolled)
		if err != nil {
			if repo.IsBusy(err) {
				continue
			}
			return nil, err
		}
		if ok {
			quotaResets.Inc()
			zerolog.Ctx(ctx).Debug().
				Str("vendor_id", vendorID).
				Int("daily_used", rolled.DailyUsed).
				Int("weekly_used", rolled.WeeklyUsed).
				Int("yearly_used", rolled.YearlyUsed).
				Msg("quota windows rolled over")
			return &rolled, nil
		}
	}
	return nil, ErrConcurrencyConflict
}

// GetQuotaSnapshot reports usage, limits, and next reset per window, plus the
// top-up pool and subscription state. Reading applies the lazy rollover.
func (s *EntitlementService) GetQuotaSnapshot(ctx context.Context, vendorID string) (*QuotaSnapshot, error) {
	ctx, span := s.tracer(ctx, "GetQuotaSnapshot", attribute.String("vendor.id", vendorID))
	defer span.End()

	q, err := s.currentQuota(ctx, s.DB, vendorID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.now()
	snap := &QuotaSnapshot{
		VendorID:      vendorID,
		LastResetDate: q.LastResetDate,
	}
	for _, w := range domain.Windows {
		snap.Windows = append(snap.Windows, WindowUsage{
			Window:    w,
			Used:      q.Used(w),
			Limit:     q.Limit(w),
			Remaining: q.Remaining(w),
			ResetsAt:  domain.NextReset(w, now, s.Location),
		})
	}

	if sub, err := repo.FindActiveSubscription(ctx, s.DB, vendorID); err == nil {
		snap.PlanID = sub.PlanID
		snap.SubscriptionActive = sub.IsActiveAt(now)
		end := sub.EndDate
		snap.SubscriptionEndsAt = &end
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	if top, err := repo.GetTopUp(ctx, s.DB, vendorID); err == nil {
		snap.TopUpRemaining = top.LeadsRemaining
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	return snap, nil
}

// requireActiveVendor maps a missing vendor to ErrVendorNotFound and a
// deactivated one to ErrVendorInactive.
func requireActiveVendor(ctx context.Context, db *gorm.DB, vendorID string) error {
	v, err := repo.GetVendor(ctx, db, vendorID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrVendorNotFound
	}
	if err != nil {
		return err
	}
	if !v.Active {
		return ErrVendorInactive
	}
	return nil
}
