package domain

import "time"

// Idempotency records the outcome of a purchase request keyed by
// (vendor_id, lead_id, key). A retried request with the same key replays the
// stored purchase instead of attempting a second grant.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	VendorID   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_vendor_lead_key,priority:1"`
	LeadID     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_vendor_lead_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_vendor_lead_key,priority:3"`
	PurchaseID string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
