package services

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
)

// TopUpService sells extra leads outside the plan windows.
type TopUpService struct {
	DB *gorm.DB
}

// Buy credits leads to the vendor's top-up pool and records amount as paid.
// Payment itself is out of scope; only the amount is stored.
func (s *TopUpService) Buy(ctx context.Context, vendorID string, leads int, amount float64) (*domain.VendorAdditionalLeads, error) {
	ctx, span := otel.Tracer("services/TopUpService").Start(ctx, "Buy",
		trace.WithAttributes(
			attribute.String("vendor.id", vendorID),
			attribute.Int("leads", leads),
		),
	)
	defer span.End()

	if leads <= 0 || amount < 0 {
		return nil, ErrInvalidTopUp
	}
	if err := requireActiveVendor(ctx, s.DB, vendorID); err != nil {
		return nil, err
	}
	row, err := repo.AddTopUp(ctx, s.DB, vendorID, leads, amount)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("vendor_id", vendorID).
		Int("leads", leads).
		Int("leads_remaining", row.LeadsRemaining).
		Msg("top-up purchased")
	return row, nil
}
