package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

func TestInsertPurchase_DuplicatePair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedLead(t, db, "l1", now, nil)

	p := &domain.LeadPurchase{VendorID: "v1", LeadID: "l1", Amount: 12.5, Source: domain.PurchaseSourceQuota, GrantedAt: now}
	if err := InsertPurchase(ctx, db, p); err != nil {
		t.Fatalf("InsertPurchase: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected generated ID")
	}

	dup := &domain.LeadPurchase{VendorID: "v1", LeadID: "l1", Source: domain.PurchaseSourceQuota, GrantedAt: now}
	if err := InsertPurchase(ctx, db, dup); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	ok, err := HasPurchased(ctx, db, "v1", "l1")
	if err != nil || !ok {
		t.Fatalf("HasPurchased=(%v, %v)", ok, err)
	}
	ok, err = HasPurchased(ctx, db, "v2", "l1")
	if err != nil || ok {
		t.Fatalf("HasPurchased(v2)=(%v, %v)", ok, err)
	}

	got, err := GetPurchase(ctx, db, "v1", "l1")
	if err != nil || got.ID != p.ID || got.Amount != 12.5 {
		t.Fatalf("GetPurchase got=%+v err=%v", got, err)
	}
	byID, err := GetPurchaseByID(ctx, db, "v1", p.ID)
	if err != nil || byID.LeadID != "l1" {
		t.Fatalf("GetPurchaseByID got=%+v err=%v", byID, err)
	}
	if _, err := GetPurchaseByID(ctx, db, "v2", p.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign vendor, got %v", err)
	}
}

func TestInsertPurchase_UnknownLead(t *testing.T) {
	db := newTestDB(t)
	err := InsertPurchase(context.Background(), db, &domain.LeadPurchase{VendorID: "v1", LeadID: "ghost", Source: domain.PurchaseSourceQuota, GrantedAt: time.Now()})
	if err == nil || err == ErrDuplicate {
		t.Fatalf("expected FK error, got %v", err)
	}
}

func TestListPurchasesForVendor_PreloadsLead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedLead(t, db, "l1", base, nil)
	seedLead(t, db, "l2", base, nil)

	for i, id := range []string{"l1", "l2"} {
		p := &domain.LeadPurchase{VendorID: "v1", LeadID: id, Source: domain.PurchaseSourceQuota, GrantedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := InsertPurchase(ctx, db, p); err != nil {
			t.Fatalf("InsertPurchase %s: %v", id, err)
		}
	}

	got, err := ListPurchasesForVendor(ctx, db, "v1", 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListPurchasesForVendor len=%d err=%v", len(got), err)
	}
	if got[0].LeadID != "l2" || got[0].Lead.ID != "l2" || got[0].Lead.Title != "lead l2" {
		t.Fatalf("expected newest first with preloaded lead, got %+v", got[0])
	}
	n, err := CountPurchases(ctx, db, "v1")
	if err != nil || n != 2 {
		t.Fatalf("CountPurchases=(%d, %v)", n, err)
	}
}

func TestHasPurchased_DBError(t *testing.T) {
	db := newTestDB(t)
	cb := "test:fail_purchase_query"
	_ = db.Callback().Query().Before("gorm:query").Register(cb, func(tx *gorm.DB) {
		if tx.Statement.Table == "lead_purchases" {
			_ = tx.AddError(gorm.ErrInvalidDB)
		}
	})
	t.Cleanup(func() { _ = db.Callback().Query().Remove(cb) })

	if _, err := HasPurchased(context.Background(), db, "v1", "l1"); err == nil {
		t.Fatalf("expected injected error")
	}
}
