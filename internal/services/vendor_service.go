package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
)

// VendorService manages vendor registration and deactivation.
type VendorService struct {
	DB *gorm.DB
}

// Create registers a new active vendor.
func (s *VendorService) Create(ctx context.Context, name string) (*domain.Vendor, error) {
	ctx, span := otel.Tracer("services/VendorService").Start(ctx, "Create")
	defer span.End()

	name = collapseSpaces(name)
	if name == "" {
		return nil, ErrInvalidVendor
	}
	v, err := repo.CreateVendor(ctx, s.DB, name)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("vendor_id", v.ID).Msg("vendor registered")
	return v, nil
}

// Get returns the vendor, or ErrVendorNotFound.
func (s *VendorService) Get(ctx context.Context, id string) (*domain.Vendor, error) {
	ctx, span := otel.Tracer("services/VendorService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("vendor.id", id)))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, ErrVendorNotFound
	}
	v, err := repo.GetVendor(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrVendorNotFound
	}
	return v, err
}

// Deactivate marks the vendor inactive. Deactivated vendors cannot subscribe
// or purchase; their rows and history are kept.
func (s *VendorService) Deactivate(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("services/VendorService").Start(ctx, "Deactivate",
		trace.WithAttributes(attribute.String("vendor.id", id)))
	defer span.End()

	if err := repo.SetVendorActive(ctx, s.DB, id, false); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrVendorNotFound
		}
		return err
	}
	zerolog.Ctx(ctx).Info().Str("vendor_id", id).Msg("vendor deactivated")
	return nil
}
