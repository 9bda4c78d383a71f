package service

import (
	"context"
	"fmt"
	"time"

	"resale-store/internal/clock"
	"resale-store/internal/domain"
	"resale-store/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationService grants and releases the time-boxed exclusive hold a
// buyer takes on a product during direct-purchase checkout. A product can
// carry at most one active hold: either a reservation or an accepted offer.
type ReservationService struct {
	products repository.ProductRepository
	offers   repository.OfferRepository
	clock    clock.Clock
	ttl      time.Duration
	offerTTL time.Duration
	logger   *zap.Logger
}

// NewReservationService creates a ReservationService. ttl bounds how long a
// reservation lives without a payment commit; offerTTL is the accepted-offer
// payment window, consulted so the two hold kinds stay mutually exclusive.
func NewReservationService(
	products repository.ProductRepository,
	offers repository.OfferRepository,
	clk clock.Clock,
	ttl time.Duration,
	offerTTL time.Duration,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		products: products,
		offers:   offers,
		clock:    clk,
		ttl:      ttl,
		offerTTL: offerTTL,
		logger:   logger,
	}
}

// Acquire reserves the product for the buyer. Re-acquiring by the current
// holder is idempotent and keeps the original reservation window. An
// expired reservation left by another buyer is taken over.
func (s *ReservationService) Acquire(ctx context.Context, productID uuid.UUID, buyer domain.Buyer) (*domain.Product, error) {
	now := s.clock.Now()
	var out *domain.Product

	err := s.products.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.products.GetForUpdate(txCtx, productID)
		if err != nil {
			return err
		}

		if product.Status == domain.ProductStatusSold {
			return domain.ErrProductSold
		}

		if product.Status == domain.ProductStatusReserved && product.Reservation != nil {
			if product.Reservation.HeldBy(buyer) {
				out = product
				return nil
			}
			if !product.Reservation.Expired(now, s.ttl) {
				return domain.ErrReservationHeld
			}
		}

		accepted, err := s.offers.FindActiveAccepted(txCtx, productID, now.Add(-s.offerTTL))
		if err != nil {
			return err
		}
		if accepted != nil && !accepted.MadeBy(buyer) {
			return domain.ErrHoldConflict
		}

		product.Status = domain.ProductStatusReserved
		product.Reservation = &domain.Reservation{
			HolderID:    buyer.ID,
			HolderEmail: buyer.Email,
			ReservedAt:  now,
		}
		product.UpdatedAt = now

		if err := s.products.Save(txCtx, product); err != nil {
			return err
		}
		out = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation acquired",
		zap.String("product_id", productID.String()),
		zap.String("holder_id", buyer.ID),
	)
	return out, nil
}

// Release clears any reservation and returns the product to AVAILABLE.
// Releasing an unreserved product is a no-op; SOLD products are untouched.
func (s *ReservationService) Release(ctx context.Context, productID uuid.UUID) error {
	_, err := s.products.UpdateAtomic(ctx, productID, func(p *domain.Product) error {
		if p.Status != domain.ProductStatusReserved {
			return nil
		}
		p.ClearReservation()
		p.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Reservation released", zap.String("product_id", productID.String()))
	return nil
}

// SweepExpired releases every reservation older than the TTL and returns
// how many it released. Each candidate is re-checked under its row lock, so
// concurrent sweeps cannot double-release or clobber a fresh hold.
func (s *ReservationService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.products.ListReservedBefore(ctx, now.Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to list expired reservations: %w", err)
	}

	released := 0
	for _, id := range ids {
		cleared := false
		_, err := s.products.UpdateAtomic(ctx, id, func(p *domain.Product) error {
			if p.Status != domain.ProductStatusReserved || !p.Reservation.Expired(now, s.ttl) {
				return nil
			}
			p.ClearReservation()
			p.UpdatedAt = now
			cleared = true
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to release expired reservation",
				zap.String("product_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		if cleared {
			released++
		}
	}

	if released > 0 {
		s.logger.Info("Expired reservations released", zap.Int("count", released))
	}
	return released, nil
}
