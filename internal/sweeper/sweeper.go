package sweeper

import (
	"context"
	"time"

	"resale-store/internal/clock"

	"go.uber.org/zap"
)

// Sweep funcs receive the authoritative now and return how many records
// they resolved.
type (
	reservationSweep interface {
		SweepExpired(ctx context.Context, now time.Time) (int, error)
	}
	offerSweep interface {
		SweepExpiredAcceptances(ctx context.Context, now time.Time) (int, error)
	}
	auctionSweep interface {
		SettleDue(ctx context.Context, now time.Time) (int, error)
	}
)

// Sweeper periodically reclaims expired reservations, expires stale offer
// acceptances and settles finished auctions. The tick intervals bound how
// stale a lapsed hold can appear between lazy checks; every sweep is
// idempotent, so overlapping or repeated runs are harmless.
type Sweeper struct {
	reservations reservationSweep
	offers       offerSweep
	auctions     auctionSweep
	clock        clock.Clock

	reservationEvery time.Duration
	offerEvery       time.Duration
	settleEvery      time.Duration

	logger *zap.Logger
}

// New creates a Sweeper over the three lifecycle services.
func New(
	reservations reservationSweep,
	offers offerSweep,
	auctions auctionSweep,
	clk clock.Clock,
	reservationEvery, offerEvery, settleEvery time.Duration,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		reservations:     reservations,
		offers:           offers,
		auctions:         auctions,
		clock:            clk,
		reservationEvery: reservationEvery,
		offerEvery:       offerEvery,
		settleEvery:      settleEvery,
		logger:           logger,
	}
}

// Run blocks until ctx is cancelled, firing each sweep on its own ticker.
func (s *Sweeper) Run(ctx context.Context) {
	reservationTick := time.NewTicker(s.reservationEvery)
	offerTick := time.NewTicker(s.offerEvery)
	settleTick := time.NewTicker(s.settleEvery)
	defer reservationTick.Stop()
	defer offerTick.Stop()
	defer settleTick.Stop()

	s.logger.Info("Sweeper started",
		zap.Duration("reservation_interval", s.reservationEvery),
		zap.Duration("offer_interval", s.offerEvery),
		zap.Duration("settle_interval", s.settleEvery),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopped")
			return
		case <-reservationTick.C:
			if _, err := s.reservations.SweepExpired(ctx, s.clock.Now()); err != nil {
				s.logger.Error("Reservation sweep failed", zap.Error(err))
			}
		case <-offerTick.C:
			if _, err := s.offers.SweepExpiredAcceptances(ctx, s.clock.Now()); err != nil {
				s.logger.Error("Offer acceptance sweep failed", zap.Error(err))
			}
		case <-settleTick.C:
			if _, err := s.auctions.SettleDue(ctx, s.clock.Now()); err != nil {
				s.logger.Error("Auction settlement sweep failed", zap.Error(err))
			}
		}
	}
}
