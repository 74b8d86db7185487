package domain

import (
	"testing"
	"time"
)

func TestSubscription_IsActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		sub  VendorPlanSubscription
		want bool
	}{
		{"active future end", VendorPlanSubscription{Status: SubscriptionActive, EndDate: now.Add(time.Hour)}, true},
		{"active but expired", VendorPlanSubscription{Status: SubscriptionActive, EndDate: now.Add(-time.Second)}, false},
		{"ends exactly now", VendorPlanSubscription{Status: SubscriptionActive, EndDate: now}, false},
		{"cancelled", VendorPlanSubscription{Status: SubscriptionCancelled, EndDate: now.Add(time.Hour)}, false},
		{"inactive", VendorPlanSubscription{Status: SubscriptionInactive, EndDate: now.Add(time.Hour)}, false},
	}
	for _, tc := range cases {
		if got := tc.sub.IsActiveAt(now); got != tc.want {
			t.Fatalf("%s: IsActiveAt=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestSubscription_DaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		end  time.Time
		want int
	}{
		{now.Add(-time.Hour), 0},
		{now, 0},
		{now.Add(time.Hour), 1},
		{now.Add(24 * time.Hour), 1},
		{now.Add(25 * time.Hour), 2},
		{now.AddDate(0, 0, 30), 30},
	}
	for _, tc := range cases {
		s := VendorPlanSubscription{EndDate: tc.end}
		if got := s.DaysRemaining(now); got != tc.want {
			t.Fatalf("DaysRemaining(end=%v)=%d want %d", tc.end, got, tc.want)
		}
	}
}

func TestSubscriptionStatus_CanTransition(t *testing.T) {
	if !SubscriptionActive.CanTransition(SubscriptionCancelled) {
		t.Fatalf("ACTIVE -> CANCELLED should be allowed")
	}
	if !SubscriptionActive.CanTransition(SubscriptionInactive) {
		t.Fatalf("ACTIVE -> INACTIVE should be allowed")
	}
	if SubscriptionCancelled.CanTransition(SubscriptionActive) {
		t.Fatalf("CANCELLED is terminal")
	}
	if SubscriptionInactive.CanTransition(SubscriptionActive) {
		t.Fatalf("INACTIVE is terminal")
	}
}
