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

// AuctionService runs timed auctions: bid validation, increment enforcement
// and settlement. The service clock is the timing authority; bids and
// settlement never trust a caller-supplied instant.
type AuctionService struct {
	products     repository.ProductRepository
	clock        clock.Clock
	minIncrement float64
	logger       *zap.Logger
}

// NewAuctionService creates an AuctionService. minIncrement is the fixed
// currency amount every new bid must clear above the current bid.
func NewAuctionService(products repository.ProductRepository, clk clock.Clock, minIncrement float64, logger *zap.Logger) *AuctionService {
	return &AuctionService{
		products:     products,
		clock:        clk,
		minIncrement: minIncrement,
		logger:       logger,
	}
}

// BidResult is the auction state after an accepted bid.
type BidResult struct {
	ProductID          uuid.UUID `json:"productId"`
	CurrentBid         float64   `json:"currentBid"`
	HighestBidderID    string    `json:"highestBidderId"`
	HighestBidderEmail string    `json:"highestBidderEmail"`
	EndTime            time.Time `json:"endTime"`
}

// PlaceBid validates and records a bid. A bid below currentBid plus the
// minimum increment is rejected outright, never clamped; a bid after the
// end time fails as expired. Accepted bids update the highest bidder under
// the product row lock, so concurrent bids serialize cleanly.
func (s *AuctionService) PlaceBid(ctx context.Context, productID uuid.UUID, bidder domain.Buyer, amount float64) (*BidResult, error) {
	now := s.clock.Now()
	var result *BidResult

	_, err := s.products.UpdateAtomic(ctx, productID, func(p *domain.Product) error {
		if p.Auction == nil {
			return domain.ErrNotAuction
		}
		if p.Status == domain.ProductStatusSold {
			return domain.ErrAuctionEnded
		}
		if now.Before(p.Auction.StartTime) {
			return domain.ErrAuctionNotStarted
		}
		if p.Auction.Ended(now) {
			return domain.ErrAuctionEnded
		}
		if amount < p.Auction.CurrentBid+s.minIncrement {
			return fmt.Errorf("%w: bid %.2f, need at least %.2f",
				domain.ErrBidBelowMinimum, amount, p.Auction.CurrentBid+s.minIncrement)
		}

		p.Auction.CurrentBid = amount
		p.Auction.HighestBidderID = bidder.ID
		p.Auction.HighestBidderEmail = bidder.Email
		p.UpdatedAt = now

		result = &BidResult{
			ProductID:          p.ID,
			CurrentBid:         p.Auction.CurrentBid,
			HighestBidderID:    p.Auction.HighestBidderID,
			HighestBidderEmail: p.Auction.HighestBidderEmail,
			EndTime:            p.Auction.EndTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bid accepted",
		zap.String("product_id", productID.String()),
		zap.String("bidder_id", bidder.ID),
		zap.Float64("amount", amount),
	)
	return result, nil
}

// Settle resolves an auction at or after its end time: SOLD when a highest
// bidder exists, otherwise the product stays AVAILABLE. Idempotent under
// concurrent invocation; only the first caller past the end time performs
// the transition, later ones see the settled state and change nothing.
// No sale record or charge is created; auction settlement has no payment
// capture step.
func (s *AuctionService) Settle(ctx context.Context, productID uuid.UUID, now time.Time) (*domain.Product, error) {
	var won bool
	settled, err := s.products.UpdateAtomic(ctx, productID, func(p *domain.Product) error {
		if p.Auction == nil {
			return domain.ErrNotAuction
		}
		if !p.Auction.Ended(now) {
			return domain.ErrAuctionRunning
		}
		if p.Status == domain.ProductStatusSold {
			return nil
		}
		if p.Auction.HasBids() {
			p.Status = domain.ProductStatusSold
			p.Reservation = nil
			p.UpdatedAt = now
			won = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if won {
		s.logger.Info("Auction settled",
			zap.String("product_id", productID.String()),
			zap.String("winner_id", settled.Auction.HighestBidderID),
			zap.Float64("winning_bid", settled.Auction.CurrentBid),
		)
	}
	return settled, nil
}

// SettleDue settles every due auction that drew a bid and returns how many
// products transitioned to SOLD. Ended auctions without a bidder are already
// in their settled state and are not listed.
func (s *AuctionService) SettleDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.products.ListAuctionsDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due auctions: %w", err)
	}

	sold := 0
	for _, id := range ids {
		product, err := s.Settle(ctx, id, now)
		if err != nil {
			s.logger.Error("Failed to settle auction",
				zap.String("product_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		if product.Status == domain.ProductStatusSold {
			sold++
		}
	}
	return sold, nil
}
