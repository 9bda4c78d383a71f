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

func newProductFixture(t *testing.T) (*ProductService, *fakeProductRepo, *fakeOfferRepo, *clock.Fixed) {
	t.Helper()
	offers := newFakeOfferRepo()
	products := newFakeProductRepo(offers)
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewProductService(products, clk, testReservationTTL, testLogger)
	return svc, products, offers, clk
}

func TestGet(t *testing.T) {
	svc, products, offers, clk := newProductFixture(t)
	id := seedProduct(t, products, domain.ProductStatusAvailable)

	require.NoError(t, offers.Create(context.Background(), &domain.Offer{
		ID:           uuid.New(),
		ProductID:    id,
		BuyerID:      alice.ID,
		OfferedPrice: 95,
		Status:       domain.OfferStatusPending,
		CreatedAt:    clk.Now(),
	}))

	product, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusAvailable, product.Status)
	require.Len(t, product.Offers, 1)
	assert.Equal(t, 95.0, product.Offers[0].OfferedPrice)
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _, _ := newProductFixture(t)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGet_ReleasesExpiredReservation(t *testing.T) {
	svc, products, _, clk := newProductFixture(t)
	id := seedProduct(t, products, domain.ProductStatusAvailable)

	_, err := products.UpdateAtomic(context.Background(), id, func(p *domain.Product) error {
		p.Status = domain.ProductStatusReserved
		p.Reservation = &domain.Reservation{HolderID: alice.ID, ReservedAt: clk.Now()}
		return nil
	})
	require.NoError(t, err)

	clk.Advance(testReservationTTL + time.Second)

	product, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusAvailable, product.Status)
	assert.Nil(t, product.Reservation)

	// The release is persisted, not just reflected in the response.
	stored, err := products.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusAvailable, stored.Status)
}

func TestGet_LiveReservationUntouched(t *testing.T) {
	svc, products, _, clk := newProductFixture(t)
	id := seedProduct(t, products, domain.ProductStatusAvailable)

	_, err := products.UpdateAtomic(context.Background(), id, func(p *domain.Product) error {
		p.Status = domain.ProductStatusReserved
		p.Reservation = &domain.Reservation{HolderID: alice.ID, ReservedAt: clk.Now()}
		return nil
	})
	require.NoError(t, err)

	clk.Advance(testReservationTTL / 2)

	product, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusReserved, product.Status)
	assert.Equal(t, alice.ID, product.Reservation.HolderID)
}

func TestGet_ReleaseFailureStillServesRead(t *testing.T) {
	svc, products, _, clk := newProductFixture(t)
	id := seedProduct(t, products, domain.ProductStatusAvailable)

	_, err := products.UpdateAtomic(context.Background(), id, func(p *domain.Product) error {
		p.Status = domain.ProductStatusReserved
		p.Reservation = &domain.Reservation{HolderID: alice.ID, ReservedAt: clk.Now()}
		return nil
	})
	require.NoError(t, err)

	clk.Advance(testReservationTTL + time.Second)
	products.failSave = true

	product, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	// Read is served from the stale row; the sweep will release the hold.
	assert.Equal(t, domain.ProductStatusReserved, product.Status)
}
