// Package services defines the business logic of the lead marketplace:
// entitlements, quota windows, the purchase admission controller, the lead
// catalog, and contact disclosure. This file centralizes the service-level
// error values so they can be returned consistently and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

// Purchase outcomes.
var (
	// ErrNotEntitled means the vendor has no active, unexpired subscription
	// (or is unknown or deactivated).
	ErrNotEntitled = errors.New("no active subscription")

	// ErrAlreadyOwned means the vendor already holds a grant for the lead.
	ErrAlreadyOwned = errors.New("lead already owned")

	// ErrQuotaExceeded is the sentinel behind QuotaExceededError.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrLeadNotAvailable means the lead does not exist or is a Direct lead of
	// another vendor.
	ErrLeadNotAvailable = errors.New("lead not available")

	// ErrConcurrencyConflict is returned once bounded optimistic retries are
	// exhausted. It carries no business meaning; callers may retry once.
	ErrConcurrencyConflict = errors.New("concurrent update, try again")
)

// Entity and validation errors.
var (
	ErrVendorNotFound        = errors.New("vendor not found")
	ErrVendorInactive        = errors.New("vendor is deactivated")
	ErrInvalidVendor         = errors.New("vendor name is required")
	ErrPlanNotFound          = errors.New("plan not found")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrSubscriptionNotActive = errors.New("subscription is not active")
	ErrInvalidLead           = errors.New("lead title is required")
	ErrInvalidTopUp          = errors.New("top-up must add at least one lead and a non-negative amount")
)

// QuotaExceededError names the first exhausted window (daily, weekly, yearly)
// and when it resets. It matches ErrQuotaExceeded with errors.Is.
type QuotaExceededError struct {
	Window   domain.Window
	ResetsAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded", e.Window)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }
