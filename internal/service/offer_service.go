package service

import (
	"context"
	"fmt"
	"time"

	"resale-store/internal/clock"
	"resale-store/internal/domain"
	"resale-store/internal/notify"
	"resale-store/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfferService manages customer price offers and their accept/reject/expire
// lifecycle. An accepted offer is a soft hold: the product stays AVAILABLE
// in the store, but reservation and competing acceptance are blocked until
// the offer is paid or its acceptance window lapses.
type OfferService struct {
	products  repository.ProductRepository
	offers    repository.OfferRepository
	notifier  notify.Notifier
	clock     clock.Clock
	acceptTTL time.Duration
	resTTL    time.Duration
	logger    *zap.Logger
}

// NewOfferService creates an OfferService. acceptTTL is the payment window
// after acceptance; resTTL is the reservation TTL, consulted when checking
// for a competing direct-purchase hold.
func NewOfferService(
	products repository.ProductRepository,
	offers repository.OfferRepository,
	notifier notify.Notifier,
	clk clock.Clock,
	acceptTTL time.Duration,
	resTTL time.Duration,
	logger *zap.Logger,
) *OfferService {
	return &OfferService{
		products:  products,
		offers:    offers,
		notifier:  notifier,
		clock:     clk,
		acceptTTL: acceptTTL,
		resTTL:    resTTL,
		logger:    logger,
	}
}

// Submit creates a PENDING offer. Any positive price is allowed, including
// above the listed price; the quick-suggestion ratios shown in the store UI
// are advisory only.
func (s *OfferService) Submit(ctx context.Context, productID uuid.UUID, buyer domain.Buyer, offeredPrice float64, message string) (*domain.Offer, error) {
	if offeredPrice <= 0 {
		return nil, domain.ErrInvalidOfferPrice
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == domain.ProductStatusSold {
		return nil, domain.ErrProductSold
	}

	now := s.clock.Now()
	offer := &domain.Offer{
		ID:           uuid.New(),
		ProductID:    productID,
		BuyerID:      buyer.ID,
		BuyerEmail:   buyer.Email,
		OfferedPrice: offeredPrice,
		Message:      message,
		Status:       domain.OfferStatusPending,
		CreatedAt:    now,
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.logger.Info("Offer submitted",
		zap.String("offer_id", offer.ID.String()),
		zap.String("product_id", productID.String()),
		zap.Float64("offered_price", offeredPrice),
	)
	return offer, nil
}

// Accept marks a PENDING offer ACCEPTED and asserts its soft hold. Fails if
// another buyer already holds the product, through a live reservation or
// another accepted offer. Sibling PENDING offers are left untouched.
func (s *OfferService) Accept(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	now := s.clock.Now()
	var accepted *domain.Offer

	err := s.products.WithTx(ctx, func(txCtx context.Context) error {
		offer, err := s.offers.FindByID(txCtx, offerID)
		if err != nil {
			return err
		}
		if offer.Status != domain.OfferStatusPending {
			return domain.ErrOfferNotPending
		}

		product, err := s.products.GetForUpdate(txCtx, offer.ProductID)
		if err != nil {
			return err
		}
		if product.Status == domain.ProductStatusSold {
			return domain.ErrProductSold
		}
		if product.Status == domain.ProductStatusReserved &&
			product.Reservation != nil &&
			!product.Reservation.Expired(now, s.resTTL) &&
			!product.Reservation.HeldBy(domain.Buyer{ID: offer.BuyerID, Email: offer.BuyerEmail}) {
			return domain.ErrHoldConflict
		}

		other, err := s.offers.FindActiveAccepted(txCtx, offer.ProductID, now.Add(-s.acceptTTL))
		if err != nil {
			return err
		}
		if other != nil && other.ID != offer.ID {
			return domain.ErrHoldConflict
		}

		offer.Status = domain.OfferStatusAccepted
		offer.AcceptedAt = &now
		if err := s.offers.Save(txCtx, offer); err != nil {
			return err
		}
		accepted = offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.OfferAccepted(accepted, now))
	s.logger.Info("Offer accepted",
		zap.String("offer_id", accepted.ID.String()),
		zap.String("product_id", accepted.ProductID.String()),
	)
	return accepted, nil
}

// Reject marks a PENDING offer REJECTED. No hold changes.
func (s *OfferService) Reject(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != domain.OfferStatusPending {
		return nil, domain.ErrOfferNotPending
	}

	offer.Status = domain.OfferStatusRejected
	if err := s.offers.Save(ctx, offer); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	s.notifier.Publish(ctx, notify.OfferRejected(offer, now))
	s.logger.Info("Offer rejected", zap.String("offer_id", offer.ID.String()))
	return offer, nil
}

// SweepExpiredAcceptances expires every ACCEPTED offer whose payment window
// has lapsed, releases any hold its buyer still has on the product, and
// notifies the buyer. Returns how many offers were expired. Safe to run
// concurrently: each offer is re-checked inside its product's transaction.
func (s *OfferService) SweepExpiredAcceptances(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.offers.ListExpiredAccepted(ctx, now.Add(-s.acceptTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to list expired acceptances: %w", err)
	}

	expired := 0
	for _, candidate := range candidates {
		var done *domain.Offer
		err := s.products.WithTx(ctx, func(txCtx context.Context) error {
			product, err := s.products.GetForUpdate(txCtx, candidate.ProductID)
			if err != nil {
				return err
			}

			offer, err := s.offers.FindByID(txCtx, candidate.ID)
			if err != nil {
				return err
			}
			if !offer.AcceptanceExpired(now, s.acceptTTL) {
				return nil
			}

			offer.Status = domain.OfferStatusExpired
			if err := s.offers.Save(txCtx, offer); err != nil {
				return err
			}

			buyer := domain.Buyer{ID: offer.BuyerID, Email: offer.BuyerEmail}
			if product.Status == domain.ProductStatusReserved && product.Reservation.HeldBy(buyer) {
				product.ClearReservation()
				product.UpdatedAt = now
				if err := s.products.Save(txCtx, product); err != nil {
					return err
				}
			}

			done = offer
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to expire accepted offer",
				zap.String("offer_id", candidate.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if done != nil {
			expired++
			s.notifier.Publish(ctx, notify.OfferExpired(done, now))
		}
	}

	if expired > 0 {
		s.logger.Info("Accepted offers expired", zap.Int("count", expired))
	}
	return expired, nil
}
