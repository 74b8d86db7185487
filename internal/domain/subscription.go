package domain

import (
	"math"
	"time"
)

// SubscriptionStatus is the stored state of a subscription row.
//
// Transitions:
//
//	subscribe: (none) -> ACTIVE, prior ACTIVE -> INACTIVE
//	renew:     ACTIVE -> ACTIVE (end_date extended)
//	cancel:    ACTIVE -> CANCELLED
//
// "Expired" is not a stored state; see IsActiveAt.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionInactive  SubscriptionStatus = "INACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// CanTransition reports whether moving from s to next is a legal transition.
func (s SubscriptionStatus) CanTransition(next SubscriptionStatus) bool {
	switch s {
	case SubscriptionActive:
		return next == SubscriptionActive || next == SubscriptionInactive || next == SubscriptionCancelled
	default:
		return false
	}
}

// VendorPlanSubscription is a vendor's entitlement window on a plan.
// At most one row per vendor may be ACTIVE, enforced by a partial unique index.
// Version guards in-place updates (renew, cancel) against lost writes.
type VendorPlanSubscription struct {
	ID                 string             `json:"id"                   gorm:"type:char(36);primaryKey"`
	VendorID           string             `json:"vendor_id"            gorm:"type:char(36);not null;index:idx_sub_vendor;index:ux_sub_vendor_active,unique,where:status = 'ACTIVE'"`
	PlanID             string             `json:"plan_id"              gorm:"type:varchar(64);not null"`
	StartDate          time.Time          `json:"start_date"           gorm:"not null"`
	EndDate            time.Time          `json:"end_date"             gorm:"not null"`
	Status             SubscriptionStatus `json:"status"               gorm:"type:varchar(16);not null;check:chk_sub_status,status IN ('ACTIVE','INACTIVE','CANCELLED')"`
	AutoRenewalEnabled bool               `json:"auto_renewal_enabled" gorm:"not null;default:false"`
	Version            int64              `json:"-"                    gorm:"not null;default:0"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// TableName returns the database table name for VendorPlanSubscription.
func (VendorPlanSubscription) TableName() string { return "vendor_plan_subscriptions" }

// IsActiveAt reports whether the subscription entitles the vendor at now.
// The stored status alone is not trusted: the end date must also be in the
// future.
func (s VendorPlanSubscription) IsActiveAt(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EndDate.After(now)
}

// DaysRemaining returns the whole days left until EndDate, rounded up, or 0
// once the subscription has ended.
func (s VendorPlanSubscription) DaysRemaining(now time.Time) int {
	left := s.EndDate.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
