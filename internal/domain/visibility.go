package domain

// VisibilityKind classifies a lead relative to one vendor.
type VisibilityKind string

const (
	VisibilityMarketplace VisibilityKind = "marketplace"
	VisibilityDirect      VisibilityKind = "direct"
	VisibilityPurchased   VisibilityKind = "purchased"
)

// LeadVisibility is the derived relationship between a vendor and a lead.
// OwnerID is set for Direct leads; PurchaseID for leads the vendor bought.
type LeadVisibility struct {
	Kind       VisibilityKind `json:"kind"`
	OwnerID    string         `json:"owner_id,omitempty"`
	PurchaseID string         `json:"purchase_id,omitempty"`
}

// Classify derives the visibility of lead for vendorID. purchase is the
// vendor's own purchase of the lead, or nil.
func Classify(vendorID string, lead Lead, purchase *LeadPurchase) LeadVisibility {
	if lead.IsDirect() {
		return LeadVisibility{Kind: VisibilityDirect, OwnerID: *lead.OwningVendorID}
	}
	if purchase != nil && purchase.VendorID == vendorID && purchase.LeadID == lead.ID {
		return LeadVisibility{Kind: VisibilityPurchased, PurchaseID: purchase.ID}
	}
	return LeadVisibility{Kind: VisibilityMarketplace}
}

// Reveals reports whether vendorID may see buyer contact details.
func (v LeadVisibility) Reveals(vendorID string) bool {
	switch v.Kind {
	case VisibilityDirect:
		return vendorID != "" && v.OwnerID == vendorID
	case VisibilityPurchased:
		return true
	}
	return false
}
