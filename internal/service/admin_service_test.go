package service

import (
	"context"
	"testing"
	"time"

	"resale-store/internal/clock"
	"resale-store/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminFixture(t *testing.T) (*AdminService, *fakeProductRepo, *fakeOfferRepo, *fakeSaleRepo, *clock.Fixed) {
	t.Helper()
	offers := newFakeOfferRepo()
	products := newFakeProductRepo(offers)
	sales := newFakeSaleRepo()
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewAdminService(products, offers, sales, clk, testLogger)
	return svc, products, offers, sales, clk
}

func TestCreateProduct(t *testing.T) {
	svc, products, _, _, _ := newAdminFixture(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:        "vinyl record",
		Description: "first pressing",
		Price:       80,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ProductStatusAvailable, product.Status)
	assert.Nil(t, product.Auction)

	stored, err := products.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, stored.Price)
}

func TestCreateProduct_AuctionListing(t *testing.T) {
	svc, _, _, _, clk := newAdminFixture(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:  "signed jersey",
		Price: 200,
		Auction: &AuctionInput{
			StartPrice: 150,
			StartTime:  clk.Now(),
			EndTime:    clk.Now().Add(48 * time.Hour),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, product.Auction)
	assert.Equal(t, 150.0, product.Auction.StartPrice)
	assert.Equal(t, 150.0, product.Auction.CurrentBid)
	assert.False(t, product.Auction.HasBids())
}

func TestCreateProduct_Invalid(t *testing.T) {
	svc, _, _, _, clk := newAdminFixture(t)

	cases := []struct {
		name string
		in   CreateProductInput
	}{
		{"empty name", CreateProductInput{Price: 10}},
		{"zero price", CreateProductInput{Name: "x"}},
		{"zero start price", CreateProductInput{Name: "x", Price: 10, Auction: &AuctionInput{
			StartTime: clk.Now(), EndTime: clk.Now().Add(time.Hour),
		}}},
		{"end before start", CreateProductInput{Name: "x", Price: 10, Auction: &AuctionInput{
			StartPrice: 5, StartTime: clk.Now(), EndTime: clk.Now().Add(-time.Hour),
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidListing)
		})
	}
}

func TestOverrideStatus_RevertSale(t *testing.T) {
	svc, products, offers, sales, clk := newAdminFixture(t)
	id := seedProduct(t, products, domain.ProductStatusSold)

	// Artifacts of the sale being reverted.
	paidAt := clk.Now()
	offerID := uuid.New()
	require.NoError(t, offers.Create(context.Background(), &domain.Offer{
		ID:        offerID,
		ProductID: id,
		BuyerID:   alice.ID,
		Status:    domain.OfferStatusCompleted,
		CreatedAt: paidAt,
		PaidAt:    &paidAt,
	}))
	orderID := uuid.New()
	require.NoError(t, sales.Create(context.Background(), &domain.Sale{
		OrderID:        orderID,
		ProductID:      id,
		Amount:         120,
		DeliveryStatus: domain.DeliveryStatusPaid,
		Timestamp:      paidAt,
	}))

	product, err := svc.OverrideStatus(context.Background(), id, domain.ProductStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusAvailable, product.Status)
	assert.Nil(t, product.Reservation)

	_, err = sales.FindByOrderID(context.Background(), orderID)
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)

	offer, err := offers.FindByID(context.Background(), offerID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusExpired, offer.Status)
}

func TestOverrideStatus_ForceSold(t *testing.T) {
	svc, products, _, sales, clk := newAdminFixture(t)
	id := seedProduct(t, products, domain.ProductStatusAvailable)

	_, err := products.UpdateAtomic(context.Background(), id, func(p *domain.Product) error {
		p.Status = domain.ProductStatusReserved
		p.Reservation = &domain.Reservation{HolderID: alice.ID, ReservedAt: clk.Now()}
		return nil
	})
	require.NoError(t, err)

	product, err := svc.OverrideStatus(context.Background(), id, domain.ProductStatusSold)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusSold, product.Status)
	assert.Nil(t, product.Reservation)

	// Forcing SOLD records no sale; there is no order to fulfil.
	got, err := sales.ListByProduct(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOverrideStatus_SameStatusIsNoop(t *testing.T) {
	svc, products, _, _, _ := newAdminFixture(t)
	id := seedProduct(t, products, domain.ProductStatusAvailable)

	product, err := svc.OverrideStatus(context.Background(), id, domain.ProductStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusAvailable, product.Status)
}

func TestOverrideStatus_RejectsReserved(t *testing.T) {
	svc, products, _, _, _ := newAdminFixture(t)
	id := seedProduct(t, products, domain.ProductStatusAvailable)

	_, err := svc.OverrideStatus(context.Background(), id, domain.ProductStatusReserved)
	assert.ErrorIs(t, err, domain.ErrInvalidProductStatus)
}

func TestUpdateDelivery(t *testing.T) {
	svc, _, _, sales, clk := newAdminFixture(t)

	orderID := uuid.New()
	require.NoError(t, sales.Create(context.Background(), &domain.Sale{
		OrderID:        orderID,
		ProductID:      uuid.New(),
		Amount:         120,
		DeliveryStatus: domain.DeliveryStatusPaid,
		Timestamp:      clk.Now(),
	}))

	sale, err := svc.UpdateDelivery(context.Background(), orderID, domain.DeliveryStatusInTransit, "TRK-001")
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusInTransit, sale.DeliveryStatus)
	assert.Equal(t, "TRK-001", sale.TrackingNumber)
}

func TestUpdateDelivery_InvalidStatus(t *testing.T) {
	svc, _, _, _, _ := newAdminFixture(t)

	_, err := svc.UpdateDelivery(context.Background(), uuid.New(), "TELEPORTED", "")
	assert.ErrorIs(t, err, domain.ErrInvalidDeliveryStatus)
}

func TestUpdateDelivery_UnknownOrder(t *testing.T) {
	svc, _, _, _, _ := newAdminFixture(t)

	_, err := svc.UpdateDelivery(context.Background(), uuid.New(), domain.DeliveryStatusPreparing, "")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}
