// Package services – DisclosureService
//
// This file implements the Contact Disclosure Resolver: the one gate every
// surface passes through before rendering buyer name, email, or phone.
// A vendor may see contact fields of a lead only when the lead is Direct to
// that vendor or the vendor holds a purchase for it.
package services

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
)

// DisclosureService answers whether contact details may be revealed.
type DisclosureService struct {
	DB *gorm.DB
}

// CanReveal reports whether vendorID may see lead's buyer contact fields.
// It performs no writes. A ledger lookup failure is logged and treated as
// false so contact details are never shown on error.
func (s *DisclosureService) CanReveal(ctx context.Context, vendorID string, lead *domain.Lead) bool {
	if vendorID == "" || lead == nil {
		return false
	}
	if lead.IsDirect() {
		return lead.OwnedBy(vendorID)
	}
	ok, err := repo.HasPurchased(ctx, s.DB, vendorID, lead.ID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("vendor_id", vendorID).
			Str("lead_id", lead.ID).
			Msg("disclosure lookup failed")
		return false
	}
	return ok
}

// Redact returns a copy of l with buyer contact fields blanked.
func Redact(l domain.Lead) domain.Lead {
	l.BuyerName = ""
	l.BuyerEmail = ""
	l.BuyerPhone = ""
	return l
}
