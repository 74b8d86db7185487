// Package services – AdmissionService
//
// This file implements the purchase admission controller. Given a vendor and
// a lead it decides allow or deny, and on allow performs the grant: a ledger
// insert and a quota increment committed together.
//
// Decision order (each step short-circuits):
//
//  1. availability: unknown lead or another vendor's Direct lead is
//     ErrLeadNotAvailable; the owner of a Direct lead succeeds for free.
//  2. dedupe: an existing grant is ErrAlreadyOwned.
//  3. entitlement: no active, unexpired subscription is ErrNotEntitled.
//  4. window rollover (lazy, compare-and-set).
//  5. headroom: first exhausted window in daily, weekly, yearly order is a
//     QuotaExceededError, unless the top-up pool covers it.
//  6. grant.
//
// Concurrency: the unique (vendor_id, lead_id) index makes the dedupe and the
// insert one atomic step, and the quota increment is a conditional UPDATE on
// the row version with headroom re-checked in SQL. A lost race rolls the
// transaction back and retries a bounded number of times.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/repo"
)

const (
	defaultMaxRetries     = 5
	defaultBackoff        = 5 * time.Millisecond
	maxBackoff            = 500 * time.Millisecond
	defaultIdempotencyTTL = 24 * time.Hour
)

// errStaleQuota rolls back a grant whose conditional quota update matched no row.
var errStaleQuota = errors.New("quota row changed")

// errTopUpEmpty rolls back a top-up grant when the pool ran dry.
var errTopUpEmpty = errors.New("top-up pool empty")

// AdmissionService runs the purchase algorithm.
type AdmissionService struct {
	DB           *gorm.DB
	Entitlements *EntitlementService

	// MaxRetries bounds optimistic retries of the grant step. Zero uses 5.
	MaxRetries int
	// Backoff is the base delay between retries, doubled each attempt.
	Backoff time.Duration
	// TopUpOverflow lets an exhausted window draw one lead from the vendor's
	// top-up pool instead of failing.
	TopUpOverflow bool
	// IdempotencyTTL is how long a purchase key replays. Zero uses 24h.
	IdempotencyTTL time.Duration

	Clock Clock
}

// Grant is the result of a successful purchase. Purchase is nil for a Direct
// lead claimed by its owner.
type Grant struct {
	Purchase   *domain.LeadPurchase  `json:"purchase,omitempty"`
	Lead       domain.Lead           `json:"lead"`
	Visibility domain.LeadVisibility `json:"visibility"`
}

// Purchase grants leadID to vendorID or returns the reason it cannot.
//
// Errors: ErrLeadNotAvailable, ErrAlreadyOwned, ErrNotEntitled,
// *QuotaExceededError (matches ErrQuotaExceeded), ErrConcurrencyConflict, or
// an underlying DB error. No failure leaves a ledger row without its quota
// charge or the reverse.
func (s *AdmissionService) Purchase(ctx context.Context, vendorID, leadID string) (*Grant, error) {
	return s.PurchaseWithKey(ctx, vendorID, leadID, "")
}

// PurchaseWithKey is Purchase with a client Idempotency-Key. The key is
// recorded in the grant transaction, so a retry racing the first request
// either sees the record or loses the ledger insert after it committed.
func (s *AdmissionService) PurchaseWithKey(ctx context.Context, vendorID, leadID, key string) (*Grant, error) {
	ctx, span := otel.Tracer("services/AdmissionService").Start(ctx, "Purchase",
		trace.WithAttributes(
			attribute.String("vendor.id", vendorID),
			attribute.String("lead.id", leadID),
		),
	)
	defer span.End()

	g, outcome, err := s.purchase(ctx, vendorID, leadID, key)
	purchaseOutcomes.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("purchase.outcome", outcome))

	lg := zerolog.Ctx(ctx).With().Str("vendor_id", vendorID).Str("lead_id", leadID).Str("outcome", outcome).Logger()
	if err != nil {
		if outcome == outcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			lg.Error().Err(err).Msg("purchase failed")
		} else {
			lg.Info().Err(err).Msg("purchase denied")
		}
		return nil, err
	}
	lg.Info().Msg("purchase granted")
	return g, nil
}

func (s *AdmissionService) purchase(ctx context.Context, vendorID, leadID, key string) (*Grant, string, error) {
	// 1) availability
	lead, err := repo.GetLead(ctx, s.DB, leadID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, outcomeNotAvailable, ErrLeadNotAvailable
	}
	if err != nil {
		return nil, outcomeError, err
	}
	if lead.IsDirect() {
		if lead.OwnedBy(vendorID) {
			if err := s.rememberKey(ctx, s.DB, vendorID, leadID, key, ""); err != nil && !errors.Is(err, repo.ErrDuplicate) {
				zerolog.Ctx(ctx).Warn().Err(err).Str("lead_id", leadID).Msg("store idempotency record")
			}
			return &Grant{Lead: *lead, Visibility: domain.Classify(vendorID, *lead, nil)}, outcomeDirect, nil
		}
		return nil, outcomeNotAvailable, ErrLeadNotAvailable
	}
	if lead.Status != domain.LeadStatusAvailable {
		return nil, outcomeNotAvailable, ErrLeadNotAvailable
	}

	// 2) dedupe
	owned, err := repo.HasPurchased(ctx, s.DB, vendorID, leadID)
	if err != nil {
		return nil, outcomeError, err
	}
	if owned {
		return nil, outcomeAlreadyOwned, ErrAlreadyOwned
	}

	// 3) entitlement, checked again inside each grant transaction
	if err := s.entitled(ctx, s.DB, vendorID); err != nil {
		if errors.Is(err, ErrNotEntitled) {
			return nil, outcomeNotEntitled, err
		}
		return nil, outcomeError, err
	}

	// 4-6) rollover, headroom, grant; retried on lost races
	retries := s.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			purchaseRetries.Inc()
			if err := s.sleep(ctx, attempt); err != nil {
				return nil, outcomeError, err
			}
		}

		q, err := s.Entitlements.currentQuota(ctx, s.DB, vendorID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotEntitled):
				return nil, outcomeNotEntitled, err
			case errors.Is(err, ErrConcurrencyConflict):
				continue
			}
			return nil, outcomeError, err
		}

		if w, exhausted := q.FirstExhausted(); exhausted {
			if !s.TopUpOverflow {
				return nil, outcomeQuotaExceeded, s.quotaExceeded(w)
			}
			p, err := s.grantFromTopUp(ctx, vendorID, lead, key)
			switch {
			case err == nil:
				return s.grant(vendorID, lead, p), outcomeGrantedTopUp, nil
			case errors.Is(err, errTopUpEmpty):
				return nil, outcomeQuotaExceeded, s.quotaExceeded(w)
			case errors.Is(err, repo.ErrDuplicate):
				return nil, outcomeAlreadyOwned, ErrAlreadyOwned
			case errors.Is(err, ErrNotEntitled):
				return nil, outcomeNotEntitled, err
			case repo.IsBusy(err):
				continue
			}
			return nil, outcomeError, err
		}

		p, err := s.grantFromQuota(ctx, vendorID, lead, key, q.Version)
		switch {
		case err == nil:
			return s.grant(vendorID, lead, p), outcomeGranted, nil
		case errors.Is(err, repo.ErrDuplicate):
			return nil, outcomeAlreadyOwned, ErrAlreadyOwned
		case errors.Is(err, ErrNotEntitled):
			return nil, outcomeNotEntitled, err
		case errors.Is(err, errStaleQuota), repo.IsBusy(err):
			continue
		}
		return nil, outcomeError, err
	}

	// Retries exhausted: report the window if one is now full, otherwise a
	// conflict the caller may retry.
	if q, err := repo.GetQuota(ctx, s.DB, vendorID); err == nil {
		rolled, _ := q.Rollover(s.Clock.now(), s.Entitlements.Location)
		if w, exhausted := rolled.FirstExhausted(); exhausted {
			return nil, outcomeQuotaExceeded, s.quotaExceeded(w)
		}
	}
	return nil, outcomeConflict, ErrConcurrencyConflict
}

// entitled reports ErrNotEntitled unless the vendor is active and holds a
// subscription that is ACTIVE now.
func (s *AdmissionService) entitled(ctx context.Context, db *gorm.DB, vendorID string) error {
	if err := requireActiveVendor(ctx, db, vendorID); err != nil {
		if errors.Is(err, ErrVendorNotFound) || errors.Is(err, ErrVendorInactive) {
			return ErrNotEntitled
		}
		return err
	}
	_, err := s.Entitlements.activeSubscription(ctx, db, vendorID)
	return err
}

// grantFromQuota inserts the ledger row and charges all three windows in one
// transaction. The insert runs first so the transaction takes the write lock
// before it reads anything; a cancel or deactivation that committed since the
// first entitlement check is seen here and rolls the grant back.
func (s *AdmissionService) grantFromQuota(ctx context.Context, vendorID string, lead *domain.Lead, key string, version int64) (*domain.LeadPurchase, error) {
	p := s.newPurchase(vendorID, lead, domain.PurchaseSourceQuota)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.InsertPurchase(ctx, tx, p); err != nil {
			return err
		}
		if err := s.entitled(ctx, tx, vendorID); err != nil {
			return err
		}
		if err := s.rememberKey(ctx, tx, vendorID, lead.ID, key, p.ID); err != nil {
			return err
		}
		ok, err := repo.IncrementQuota(ctx, tx, vendorID, version)
		if err != nil {
			return err
		}
		if !ok {
			return errStaleQuota
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// grantFromTopUp inserts the ledger row and takes one lead from the top-up
// pool. Window counters are left untouched.
func (s *AdmissionService) grantFromTopUp(ctx context.Context, vendorID string, lead *domain.Lead, key string) (*domain.LeadPurchase, error) {
	p := s.newPurchase(vendorID, lead, domain.PurchaseSourceTopUp)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.InsertPurchase(ctx, tx, p); err != nil {
			return err
		}
		if err := s.entitled(ctx, tx, vendorID); err != nil {
			return err
		}
		if err := s.rememberKey(ctx, tx, vendorID, lead.ID, key, p.ID); err != nil {
			return err
		}
		ok, err := repo.ConsumeTopUp(ctx, tx, vendorID)
		if err != nil {
			return err
		}
		if !ok {
			return errTopUpEmpty
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// rememberKey stores the purchase key for replay; a blank key is a no-op.
func (s *AdmissionService) rememberKey(ctx context.Context, db *gorm.DB, vendorID, leadID, key, purchaseID string) error {
	if key == "" {
		return nil
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	_, err := repo.CreateIdempotency(ctx, db, vendorID, leadID, key, purchaseID, http.StatusCreated, s.Clock.now(), ttl)
	return err
}

func (s *AdmissionService) newPurchase(vendorID string, lead *domain.Lead, src domain.PurchaseSource) *domain.LeadPurchase {
	return &domain.LeadPurchase{
		VendorID:  vendorID,
		LeadID:    lead.ID,
		Amount:    lead.Price,
		Source:    src,
		GrantedAt: s.Clock.now(),
	}
}

func (s *AdmissionService) grant(vendorID string, lead *domain.Lead, p *domain.LeadPurchase) *Grant {
	return &Grant{
		Purchase:   p,
		Lead:       *lead,
		Visibility: domain.Classify(vendorID, *lead, p),
	}
}

func (s *AdmissionService) quotaExceeded(w domain.Window) error {
	return &QuotaExceededError{
		Window:   w,
		ResetsAt: domain.NextReset(w, s.Clock.now(), s.Entitlements.Location),
	}
}

func (s *AdmissionService) sleep(ctx context.Context, attempt int) error {
	base := s.Backoff
	if base <= 0 {
		base = defaultBackoff
	}
	d := base << (attempt - 1)
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
