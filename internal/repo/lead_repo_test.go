package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

func TestCreateLead_Defaults(t *testing.T) {
	db := newTestDB(t)
	l := &domain.Lead{Title: "steel pipes"}
	if err := CreateLead(context.Background(), db, l); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if l.ID == "" || l.CreatedAt.IsZero() || l.Status != domain.LeadStatusAvailable {
		t.Fatalf("defaults not applied: %+v", l)
	}
	got, err := GetLead(context.Background(), db, l.ID)
	if err != nil || got.Title != "steel pipes" {
		t.Fatalf("GetLead got=%+v err=%v", got, err)
	}
	if _, err := GetLead(context.Background(), db, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMarketplaceLeads_FiltersAndOrders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	other := "v2"

	seedLead(t, db, "a", base, nil)
	seedLead(t, db, "b", base.Add(time.Hour), nil)
	seedLead(t, db, "c", base.Add(2*time.Hour), nil)
	seedLead(t, db, "d", base.Add(3*time.Hour), &other)

	if err := InsertPurchase(ctx, db, &domain.LeadPurchase{VendorID: "v1", LeadID: "b", Source: domain.PurchaseSourceQuota, GrantedAt: base}); err != nil {
		t.Fatalf("InsertPurchase: %v", err)
	}

	got, err := ListMarketplaceLeads(ctx, db, "v1", 0, 10)
	if err != nil {
		t.Fatalf("ListMarketplaceLeads: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("unexpected v1 view: %+v", got)
	}
	n, err := CountMarketplaceLeads(ctx, db, "v1")
	if err != nil || n != 2 {
		t.Fatalf("CountMarketplaceLeads=(%d, %v)", n, err)
	}

	// v2 owns d directly; it still never shows in any marketplace view
	got, err = ListMarketplaceLeads(ctx, db, "v2", 0, 10)
	if err != nil || len(got) != 3 {
		t.Fatalf("v2 view len=%d err=%v", len(got), err)
	}
	for _, l := range got {
		if l.ID == "d" {
			t.Fatalf("direct lead leaked into marketplace")
		}
	}

	page, err := ListMarketplaceLeads(ctx, db, "v2", 1, 1)
	if err != nil || len(page) != 1 || page[0].ID != "b" {
		t.Fatalf("page 2 got=%+v err=%v", page, err)
	}
}

func TestListDirectLeads(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	v1, v2 := "v1", "v2"

	seedLead(t, db, "d1", base, &v1)
	seedLead(t, db, "d2", base.Add(time.Minute), &v1)
	seedLead(t, db, "d3", base, &v2)

	got, err := ListDirectLeads(ctx, db, "v1", 10)
	if err != nil || len(got) != 2 || got[0].ID != "d2" {
		t.Fatalf("ListDirectLeads got=%+v err=%v", got, err)
	}
	n, err := CountDirectLeads(ctx, db, "v2")
	if err != nil || n != 1 {
		t.Fatalf("CountDirectLeads=(%d, %v)", n, err)
	}
}

func TestVendorRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	v, err := CreateVendor(ctx, db, "Acme")
	if err != nil || v.ID == "" || !v.Active {
		t.Fatalf("CreateVendor v=%+v err=%v", v, err)
	}
	if err := SetVendorActive(ctx, db, v.ID, false); err != nil {
		t.Fatalf("SetVendorActive: %v", err)
	}
	got, err := GetVendor(ctx, db, v.ID)
	if err != nil || got.Active {
		t.Fatalf("GetVendor got=%+v err=%v", got, err)
	}
	if err := SetVendorActive(ctx, db, "missing", true); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
