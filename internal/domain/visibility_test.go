package domain

import "testing"

func TestClassify(t *testing.T) {
	owner := "v1"
	direct := Lead{ID: "l1", OwningVendorID: &owner, Status: LeadStatusAssigned}
	market := Lead{ID: "l2", Status: LeadStatusAvailable}
	bought := &LeadPurchase{ID: "p1", VendorID: "v2", LeadID: "l2"}

	cases := []struct {
		name     string
		vendor   string
		lead     Lead
		purchase *LeadPurchase
		kind     VisibilityKind
		reveals  bool
	}{
		{"direct owner", "v1", direct, nil, VisibilityDirect, true},
		{"direct other vendor", "v2", direct, nil, VisibilityDirect, false},
		{"marketplace unbought", "v2", market, nil, VisibilityMarketplace, false},
		{"marketplace bought", "v2", market, bought, VisibilityPurchased, true},
		{"someone else's purchase", "v3", market, bought, VisibilityMarketplace, false},
	}
	for _, tc := range cases {
		v := Classify(tc.vendor, tc.lead, tc.purchase)
		if v.Kind != tc.kind {
			t.Fatalf("%s: kind=%q want %q", tc.name, v.Kind, tc.kind)
		}
		if got := v.Reveals(tc.vendor); got != tc.reveals {
			t.Fatalf("%s: reveals=%v want %v", tc.name, got, tc.reveals)
		}
	}
}

func TestReveals_EmptyVendor(t *testing.T) {
	v := LeadVisibility{Kind: VisibilityDirect, OwnerID: ""}
	if v.Reveals("") {
		t.Fatalf("empty vendor must never be revealed to")
	}
}
