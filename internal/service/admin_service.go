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

// AdminService carries the privileged back-office operations: creating
// listings, forcing product status and advancing delivery.
type AdminService struct {
	products repository.ProductRepository
	offers   repository.OfferRepository
	sales    repository.SaleRepository
	clock    clock.Clock
	logger   *zap.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	products repository.ProductRepository,
	offers repository.OfferRepository,
	sales repository.SaleRepository,
	clk clock.Clock,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		products: products,
		offers:   offers,
		sales:    sales,
		clock:    clk,
		logger:   logger,
	}
}

// AuctionInput describes the optional auction window on a new listing.
type AuctionInput struct {
	StartPrice float64
	StartTime  time.Time
	EndTime    time.Time
}

// CreateProductInput describes a new listing.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Auction     *AuctionInput
}

// CreateProduct lists a new product as AVAILABLE. Auction listings start
// with currentBid at the start price.
func (s *AdminService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if in.Name == "" || in.Price <= 0 {
		return nil, domain.ErrInvalidListing
	}
	if in.Auction != nil {
		if in.Auction.StartPrice <= 0 || !in.Auction.EndTime.After(in.Auction.StartTime) {
			return nil, domain.ErrInvalidListing
		}
	}

	now := s.clock.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Status:      domain.ProductStatusAvailable,
		Offers:      []*domain.Offer{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Auction != nil {
		product.Auction = &domain.Auction{
			StartPrice: in.Auction.StartPrice,
			CurrentBid: in.Auction.StartPrice,
			StartTime:  in.Auction.StartTime,
			EndTime:    in.Auction.EndTime,
		}
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product listed",
		zap.String("product_id", product.ID.String()),
		zap.Float64("price", product.Price),
		zap.Bool("auction", product.Auction != nil),
	)
	return product, nil
}

// OverrideStatus forces a product between SOLD and AVAILABLE. Reverting a
// sale deletes the product's sale records and expires its accepted or
// completed offers, so no dangling artifacts point at a live listing.
func (s *AdminService) OverrideStatus(ctx context.Context, productID uuid.UUID, status domain.ProductStatus) (*domain.Product, error) {
	if status != domain.ProductStatusAvailable && status != domain.ProductStatusSold {
		return nil, domain.ErrInvalidProductStatus
	}

	now := s.clock.Now()
	var out *domain.Product

	err := s.products.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.products.GetForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		if product.Status == status {
			out = product
			return nil
		}

		if status == domain.ProductStatusAvailable {
			if err := s.sales.DeleteByProduct(txCtx, productID); err != nil {
				return err
			}
			if err := s.offers.ExpireForProduct(txCtx, productID); err != nil {
				return err
			}
		}

		product.Status = status
		product.Reservation = nil
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

	s.logger.Warn("Product status overridden",
		zap.String("product_id", productID.String()),
		zap.String("status", string(out.Status)),
	)
	return out, nil
}

// UpdateDelivery advances a sale's fulfilment state.
func (s *AdminService) UpdateDelivery(ctx context.Context, orderID uuid.UUID, status domain.DeliveryStatus, trackingNumber string) (*domain.Sale, error) {
	if !domain.ValidDeliveryStatus(status) {
		return nil, domain.ErrInvalidDeliveryStatus
	}

	if err := s.sales.UpdateDelivery(ctx, orderID, status, trackingNumber); err != nil {
		return nil, err
	}

	sale, err := s.sales.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Delivery updated",
		zap.String("order_id", orderID.String()),
		zap.String("delivery_status", string(status)),
	)
	return sale, nil
}
