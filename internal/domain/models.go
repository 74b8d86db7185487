// Package domain defines the persistence models for the lead marketplace:
// vendors, plans, leads, purchases, subscriptions, and quota counters. These
// types are mapped with GORM and shared across the repository and service
// layers. Derived state (subscription activity, quota window rollover, lead
// visibility) lives next to the models as pure functions.
package domain

import "time"

// Vendor is a seller on the marketplace. Vendors are never deleted; they are
// deactivated instead.
type Vendor struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Active    bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Vendor.
func (Vendor) TableName() string { return "vendors" }

// Plan is a purchasable subscription tier. Its limits are copied onto the
// vendor's quota row whenever the vendor subscribes.
type Plan struct {
	ID           string    `json:"id"            gorm:"type:varchar(64);primaryKey"`
	Name         string    `json:"name"          gorm:"type:varchar(255);not null"`
	DailyLimit   int       `json:"daily_limit"   gorm:"not null;check:chk_plans_daily,daily_limit >= 0"`
	WeeklyLimit  int       `json:"weekly_limit"  gorm:"not null;check:chk_plans_weekly,weekly_limit >= 0"`
	YearlyLimit  int       `json:"yearly_limit"  gorm:"not null;check:chk_plans_yearly,yearly_limit >= 0"`
	DurationDays int       `json:"duration_days" gorm:"not null;check:chk_plans_duration,duration_days > 0"`
	Price        float64   `json:"price"         gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Plan.
func (Plan) TableName() string { return "plans" }

// Duration returns the plan length as a time.Duration.
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// LeadStatus tags a lead as open on the marketplace or pre-assigned to a
// single vendor.
type LeadStatus string

const (
	LeadStatusAvailable LeadStatus = "AVAILABLE"
	LeadStatusAssigned  LeadStatus = "ASSIGNED"
)

// Lead is a buyer requirement, the unit of sale. Buyer contact fields are
// always stored; disclosure is decided by the services layer.
//
// A non-nil OwningVendorID makes the lead a Direct lead: visible only to that
// vendor and never purchasable.
type Lead struct {
	ID          string  `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string  `json:"title"       gorm:"type:varchar(255);not null"`
	Description string  `json:"description" gorm:"type:text"`
	Category    string  `json:"category"    gorm:"type:varchar(128);index"`
	Location    string  `json:"location"    gorm:"type:varchar(255)"`
	Quantity    string  `json:"quantity"    gorm:"type:varchar(128)"`
	Budget      string  `json:"budget"      gorm:"type:varchar(128)"`
	Price       float64 `json:"price"       gorm:"not null;default:0"`

	BuyerName  string `json:"buyer_name"  gorm:"type:varchar(255)"`
	BuyerEmail string `json:"buyer_email" gorm:"type:varchar(255)"`
	BuyerPhone string `json:"buyer_phone" gorm:"type:varchar(64)"`

	OwningVendorID *string    `json:"owning_vendor_id,omitempty" gorm:"type:char(36);index:idx_leads_owner"`
	Status         LeadStatus `json:"status"     gorm:"type:varchar(16);not null;default:'AVAILABLE';check:chk_leads_status,status IN ('AVAILABLE','ASSIGNED')"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index:idx_leads_created"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// IsDirect reports whether the lead is pre-assigned to a vendor.
func (l Lead) IsDirect() bool {
	return l.OwningVendorID != nil && *l.OwningVendorID != ""
}

// OwnedBy reports whether the lead is a Direct lead of vendorID.
func (l Lead) OwnedBy(vendorID string) bool {
	return l.IsDirect() && *l.OwningVendorID == vendorID
}

// PurchaseSource records which entitlement paid for a grant.
type PurchaseSource string

const (
	PurchaseSourceQuota PurchaseSource = "quota"
	PurchaseSourceTopUp PurchaseSource = "topup"
)

// LeadPurchase is an immutable grant of a marketplace lead to a vendor.
// The (vendor_id, lead_id) pair is unique.
type LeadPurchase struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	VendorID  string         `json:"vendor_id"  gorm:"type:char(36);not null;uniqueIndex:ux_purchase_vendor_lead,priority:1;index:idx_purchase_vendor_granted,priority:1"`
	LeadID    string         `json:"lead_id"    gorm:"type:char(36);not null;uniqueIndex:ux_purchase_vendor_lead,priority:2"`
	Amount    float64        `json:"amount"     gorm:"not null;default:0"`
	Source    PurchaseSource `json:"source"     gorm:"type:varchar(16);not null;default:'quota';check:chk_purchase_source,source IN ('quota','topup')"`
	GrantedAt time.Time      `json:"granted_at" gorm:"not null;index:idx_purchase_vendor_granted,priority:2"`

	Lead Lead `json:"-" gorm:"foreignKey:LeadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for LeadPurchase.
func (LeadPurchase) TableName() string { return "lead_purchases" }

// VendorAdditionalLeads is a vendor's top-up pool: extra leads bought for a
// flat fee outside the plan windows. One row per vendor; purchases accumulate.
type VendorAdditionalLeads struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	VendorID       string    `json:"vendor_id"       gorm:"type:char(36);not null;uniqueIndex"`
	LeadsPurchased int       `json:"leads_purchased" gorm:"not null;default:0"`
	LeadsRemaining int       `json:"leads_remaining" gorm:"not null;default:0;check:chk_topup_remaining,leads_remaining >= 0"`
	AmountPaid     float64   `json:"amount_paid"     gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for VendorAdditionalLeads.
func (VendorAdditionalLeads) TableName() string { return "vendor_additional_leads" }
