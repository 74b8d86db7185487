package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/services"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrNotEntitled, http.StatusPaymentRequired, "not_entitled"},
		{services.ErrAlreadyOwned, http.StatusConflict, "already_owned"},
		{&services.QuotaExceededError{Window: domain.WindowDaily, ResetsAt: time.Now()}, http.StatusTooManyRequests, "quota_exceeded_daily"},
		{&services.QuotaExceededError{Window: domain.WindowWeekly}, http.StatusTooManyRequests, "quota_exceeded_weekly"},
		{fmt.Errorf("wrapped: %w", &services.QuotaExceededError{Window: domain.WindowYearly}), http.StatusTooManyRequests, "quota_exceeded_yearly"},
		{services.ErrLeadNotAvailable, http.StatusNotFound, "lead_not_available"},
		{services.ErrConcurrencyConflict, http.StatusServiceUnavailable, "try_again"},
		{services.ErrVendorNotFound, http.StatusNotFound, "vendor_not_found"},
		{services.ErrPlanNotFound, http.StatusNotFound, "plan_not_found"},
		{services.ErrSubscriptionNotFound, http.StatusNotFound, "subscription_not_found"},
		{services.ErrSubscriptionNotActive, http.StatusConflict, "subscription_not_active"},
		{services.ErrInvalidLead, http.StatusBadRequest, "bad_request"},
		{services.ErrInvalidTopUp, http.StatusBadRequest, "bad_request"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		got := mapError(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("mapError(%v) = %d %s; want %d %s", tc.err, got.Status, got.Code, tc.status, tc.code)
		}
		if got.Message == "" {
			t.Fatalf("mapError(%v) has empty message", tc.err)
		}
	}
}

func TestMapError_QuotaMessagesDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, w := range domain.Windows {
		msg := mapError(&services.QuotaExceededError{Window: w}).Message
		if seen[msg] {
			t.Fatalf("duplicate quota message %q", msg)
		}
		seen[msg] = true
	}
}
