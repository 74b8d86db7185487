package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

func newSub(vendorID string, status domain.SubscriptionStatus, end time.Time) *domain.VendorPlanSubscription {
	return &domain.VendorPlanSubscription{
		VendorID:  vendorID,
		PlanID:    "starter",
		StartDate: end.Add(-30 * 24 * time.Hour),
		EndDate:   end,
		Status:    status,
	}
}

func TestInsertSubscription_SecondActiveRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	end := time.Now().UTC().Add(24 * time.Hour)

	if err := InsertSubscription(ctx, db, newSub("v1", domain.SubscriptionActive, end)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := InsertSubscription(ctx, db, newSub("v1", domain.SubscriptionActive, end)); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// other vendors are independent
	if err := InsertSubscription(ctx, db, newSub("v2", domain.SubscriptionActive, end)); err != nil {
		t.Fatalf("insert v2: %v", err)
	}
}

func TestDeactivateThenInsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	end := time.Now().UTC().Add(24 * time.Hour)

	first := newSub("v1", domain.SubscriptionActive, end)
	if err := InsertSubscription(ctx, db, first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	n, err := DeactivateSubscriptions(ctx, db, "v1")
	if err != nil || n != 1 {
		t.Fatalf("DeactivateSubscriptions=(%d, %v)", n, err)
	}
	if _, err := FindActiveSubscription(ctx, db, "v1"); err != ErrNotFound {
		t.Fatalf("expected no active row, got %v", err)
	}
	second := newSub("v1", domain.SubscriptionActive, end)
	if err := InsertSubscription(ctx, db, second); err != nil {
		t.Fatalf("insert after deactivate: %v", err)
	}
	got, err := FindActiveSubscription(ctx, db, "v1")
	if err != nil || got.ID != second.ID {
		t.Fatalf("FindActiveSubscription got=%+v err=%v", got, err)
	}
	old, err := GetSubscription(ctx, db, first.ID, "v1")
	if err != nil || old.Status != domain.SubscriptionInactive {
		t.Fatalf("old row got=%+v err=%v", old, err)
	}
}

func TestExtendAndTransition_CompareAndSet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	end := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newSub("v1", domain.SubscriptionActive, end)
	if err := InsertSubscription(ctx, db, s); err != nil {
		t.Fatalf("insert: %v", err)
	}

	newEnd := end.AddDate(0, 0, 30)
	if ok, err := ExtendSubscription(ctx, db, s.ID, 0, newEnd); err != nil || !ok {
		t.Fatalf("extend: (%v, %v)", ok, err)
	}
	if ok, err := ExtendSubscription(ctx, db, s.ID, 0, newEnd.AddDate(0, 0, 30)); err != nil || ok {
		t.Fatalf("stale extend must not apply: (%v, %v)", ok, err)
	}
	if ok, err := TransitionSubscription(ctx, db, s.ID, 1, domain.SubscriptionActive, domain.SubscriptionCancelled); err != nil || !ok {
		t.Fatalf("cancel: (%v, %v)", ok, err)
	}
	if ok, err := ExtendSubscription(ctx, db, s.ID, 2, newEnd.AddDate(1, 0, 0)); err != nil || ok {
		t.Fatalf("cancelled row must not extend: (%v, %v)", ok, err)
	}

	got, _ := GetSubscription(ctx, db, s.ID, "v1")
	if got.Status != domain.SubscriptionCancelled || !got.EndDate.Equal(newEnd) {
		t.Fatalf("unexpected row %+v", got)
	}
}

func TestSetAutoRenewal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := newSub("v1", domain.SubscriptionActive, time.Now().UTC().Add(time.Hour))
	if err := InsertSubscription(ctx, db, s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := SetAutoRenewal(ctx, db, s.ID, "v1", true); err != nil {
		t.Fatalf("SetAutoRenewal: %v", err)
	}
	got, _ := GetSubscription(ctx, db, s.ID, "v1")
	if !got.AutoRenewalEnabled {
		t.Fatalf("flag not persisted")
	}
	if err := SetAutoRenewal(ctx, db, s.ID, "v2", true); err != ErrNotFound {
		t.Fatalf("foreign vendor must get ErrNotFound, got %v", err)
	}
}
