package service

import (
	"context"
	"time"

	"resale-store/internal/clock"
	"resale-store/internal/domain"
	"resale-store/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService serves product reads. Expiry is lazily enforced here: a
// read that finds a stale reservation releases it before returning, so
// browsers never see a hold the sweep has not caught up with yet.
type ProductService struct {
	products repository.ProductRepository
	clock    clock.Clock
	resTTL   time.Duration
	logger   *zap.Logger
}

// NewProductService creates a ProductService.
func NewProductService(products repository.ProductRepository, clk clock.Clock, resTTL time.Duration, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		clock:    clk,
		resTTL:   resTTL,
		logger:   logger,
	}
}

// Get returns the product with its offers, releasing an expired
// reservation on the way.
func (s *ProductService) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if product.Status == domain.ProductStatusReserved && product.Reservation.Expired(now, s.resTTL) {
		released, err := s.products.UpdateAtomic(ctx, productID, func(p *domain.Product) error {
			if p.Status == domain.ProductStatusReserved && p.Reservation.Expired(now, s.resTTL) {
				p.ClearReservation()
				p.UpdatedAt = now
			}
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to release expired reservation on read",
				zap.String("product_id", productID.String()),
				zap.Error(err),
			)
			return product, nil
		}
		released.Offers = product.Offers
		return released, nil
	}

	return product, nil
}
