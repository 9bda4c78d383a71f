package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resale-store/internal/clock"
	"resale-store/internal/domain"
	"resale-store/internal/notify"
	"resale-store/internal/payment"
	"resale-store/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClaimKind says which kind of hold a payment consumes.
type ClaimKind string

const (
	ClaimReservation ClaimKind = "reservation"
	ClaimOffer       ClaimKind = "offer"
)

// Claim references the hold being paid for: the reserved product for a
// direct purchase, or the accepted offer for a negotiated one.
type Claim struct {
	Kind      ClaimKind
	ProductID uuid.UUID
	OfferID   uuid.UUID
}

// Handle tracks an in-flight payment attempt between initiate and its
// commit or rollback. Handles are process-local; if the process dies
// mid-flight, the underlying hold is reclaimed by the TTL sweep.
type Handle struct {
	ID          uuid.UUID        `json:"id"`
	Kind        ClaimKind        `json:"kind"`
	ProductID   uuid.UUID        `json:"productId"`
	OfferID     uuid.UUID        `json:"offerId,omitempty"`
	Buyer       domain.SaleBuyer `json:"buyer"`
	Amount      float64          `json:"amount"`
	Method      string           `json:"method"`
	RedirectURL string           `json:"redirectUrl,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// PaymentService drives a payment attempt to completion or rollback. Every
// failure path, including the buyer abandoning the flow, must end in
// Rollback so the hold is released; holds orphaned by a crash fall to the
// expiry sweep.
type PaymentService struct {
	products repository.ProductRepository
	offers   repository.OfferRepository
	sales    repository.SaleRepository
	charger  payment.Charger
	notifier notify.Notifier
	clock    clock.Clock

	chargeTimeout time.Duration
	resTTL        time.Duration
	offerTTL      time.Duration

	mu      sync.Mutex
	handles map[uuid.UUID]*Handle

	logger *zap.Logger
}

// NewPaymentService creates a PaymentService. chargeTimeout bounds every
// gateway call; past it the attempt is failed and rolled back.
func NewPaymentService(
	products repository.ProductRepository,
	offers repository.OfferRepository,
	sales repository.SaleRepository,
	charger payment.Charger,
	notifier notify.Notifier,
	clk clock.Clock,
	chargeTimeout time.Duration,
	resTTL time.Duration,
	offerTTL time.Duration,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		products:      products,
		offers:        offers,
		sales:         sales,
		charger:       charger,
		notifier:      notifier,
		clock:         clk,
		chargeTimeout: chargeTimeout,
		resTTL:        resTTL,
		offerTTL:      offerTTL,
		handles:       make(map[uuid.UUID]*Handle),
		logger:        logger,
	}
}

// Initiate verifies the claim against the caller's identity, then attempts
// the charge. The identity must match the hold's holder by id or email; a
// mismatch fails without touching the gateway. A gateway failure or timeout
// rolls the hold back before the error is returned.
func (s *PaymentService) Initiate(ctx context.Context, claim Claim, buyer domain.SaleBuyer, method string) (*Handle, error) {
	now := s.clock.Now()

	handle := &Handle{
		ID:        uuid.New(),
		Kind:      claim.Kind,
		Buyer:     buyer,
		Method:    method,
		CreatedAt: now,
	}

	switch claim.Kind {
	case ClaimReservation:
		product, err := s.products.FindByID(ctx, claim.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Status == domain.ProductStatusSold {
			return nil, domain.ErrProductSold
		}
		if product.Status != domain.ProductStatusReserved || product.Reservation == nil {
			return nil, domain.ErrReservationExpired
		}
		if !product.Reservation.HeldBy(buyer.AsBuyer()) {
			return nil, domain.ErrHolderMismatch
		}
		if product.Reservation.Expired(now, s.resTTL) {
			return nil, domain.ErrReservationExpired
		}
		handle.ProductID = product.ID
		handle.Amount = product.Price

	case ClaimOffer:
		offer, err := s.offers.FindByID(ctx, claim.OfferID)
		if err != nil {
			return nil, err
		}
		if offer.Status != domain.OfferStatusAccepted {
			return nil, domain.ErrOfferNotAccepted
		}
		if !offer.MadeBy(buyer.AsBuyer()) {
			return nil, domain.ErrHolderMismatch
		}
		if offer.AcceptanceExpired(now, s.offerTTL) {
			return nil, domain.ErrOfferExpired
		}
		handle.ProductID = offer.ProductID
		handle.OfferID = offer.ID
		handle.Amount = offer.OfferedPrice

	default:
		return nil, domain.ErrInvalidClaim
	}

	s.register(handle)

	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()

	payer := payment.Payer{ID: buyer.ID, Name: buyer.Name, Email: buyer.Email}
	result, err := s.charger.CreateCharge(chargeCtx, handle.Amount, handle.ID.String(), payer)
	if err != nil {
		s.rollback(ctx, handle, fmt.Sprintf("gateway unreachable: %v", err))
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	switch result.Status {
	case payment.ChargeSucceeded, payment.ChargePending:
	default:
		// Anything short of an explicit success or pending verdict is a
		// decline; committing on it would write a sale for an uncharged buyer.
		reason := result.FailureReason
		if reason == "" {
			reason = fmt.Sprintf("unrecognized charge status %q", result.Status)
		}
		s.rollback(ctx, handle, reason)
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, reason)
	}

	handle.RedirectURL = result.RedirectURL

	s.logger.Info("Payment initiated",
		zap.String("handle_id", handle.ID.String()),
		zap.String("product_id", handle.ProductID.String()),
		zap.Float64("amount", handle.Amount),
		zap.String("kind", string(handle.Kind)),
	)
	return handle, nil
}

// Commit finalizes a successful charge: writes the sale, marks the product
// SOLD, completes the offer or clears the reservation, and notifies the
// buyer. The claim is re-checked under the product row lock; a hold that
// expired mid-flight fails the commit instead of overselling.
func (s *PaymentService) Commit(ctx context.Context, handleID uuid.UUID) (*domain.Sale, error) {
	handle, ok := s.lookup(handleID)
	if !ok {
		return nil, domain.ErrHandleNotFound
	}

	now := s.clock.Now()
	sale := &domain.Sale{
		OrderID:        uuid.New(),
		ProductID:      handle.ProductID,
		Buyer:          handle.Buyer,
		Amount:         handle.Amount,
		PaymentMethod:  handle.Method,
		DeliveryStatus: domain.DeliveryStatusPaid,
		Timestamp:      now,
	}

	err := s.products.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.products.GetForUpdate(txCtx, handle.ProductID)
		if err != nil {
			return err
		}
		if product.Status == domain.ProductStatusSold {
			return domain.ErrProductSold
		}
		if product.Status == domain.ProductStatusReserved &&
			product.Reservation != nil &&
			!product.Reservation.HeldBy(handle.Buyer.AsBuyer()) &&
			!product.Reservation.Expired(now, s.resTTL) {
			return domain.ErrReservationHeld
		}

		if handle.Kind == ClaimOffer {
			offer, err := s.offers.FindByID(txCtx, handle.OfferID)
			if err != nil {
				return err
			}
			if offer.Status != domain.OfferStatusAccepted {
				return domain.ErrOfferExpired
			}
			offer.Status = domain.OfferStatusCompleted
			offer.PaidAt = &now
			if err := s.offers.Save(txCtx, offer); err != nil {
				return err
			}
		}

		if err := s.sales.Create(txCtx, sale); err != nil {
			return err
		}

		product.Status = domain.ProductStatusSold
		product.Reservation = nil
		product.UpdatedAt = now
		return s.products.Save(txCtx, product)
	})
	if err != nil {
		return nil, err
	}

	s.forget(handleID)
	s.notifier.Publish(ctx, notify.PaymentSucceeded(sale, handle.OfferID, now))

	s.logger.Info("Payment committed",
		zap.String("handle_id", handleID.String()),
		zap.String("order_id", sale.OrderID.String()),
		zap.String("product_id", sale.ProductID.String()),
	)
	return sale, nil
}

// Rollback releases the hold after a gateway failure, a user cancellation
// or a client-side abort, leaving the product AVAILABLE. Idempotent: an
// unknown handle means the attempt was already rolled back or committed.
func (s *PaymentService) Rollback(ctx context.Context, handleID uuid.UUID, reason string) error {
	handle, ok := s.lookup(handleID)
	if !ok {
		return nil
	}
	s.rollback(ctx, handle, reason)
	return nil
}

func (s *PaymentService) rollback(ctx context.Context, handle *Handle, reason string) {
	_, err := s.products.UpdateAtomic(ctx, handle.ProductID, func(p *domain.Product) error {
		if p.Status == domain.ProductStatusReserved && p.Reservation.HeldBy(handle.Buyer.AsBuyer()) {
			p.ClearReservation()
			p.UpdatedAt = s.clock.Now()
		}
		return nil
	})
	if err != nil {
		// The hold stays until the TTL sweep reclaims it.
		s.logger.Error("Failed to release hold on rollback",
			zap.String("handle_id", handle.ID.String()),
			zap.String("product_id", handle.ProductID.String()),
			zap.Error(err),
		)
	}

	s.forget(handle.ID)
	s.notifier.Publish(ctx, notify.PaymentFailed(handle.ProductID, handle.OfferID, reason, s.clock.Now()))

	s.logger.Info("Payment rolled back",
		zap.String("handle_id", handle.ID.String()),
		zap.String("product_id", handle.ProductID.String()),
		zap.String("reason", reason),
	)
}

func (s *PaymentService) register(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[h.ID] = h
}

func (s *PaymentService) lookup(id uuid.UUID) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[id]
	return h, ok
}

func (s *PaymentService) forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, id)
}
