package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"resale-store/internal/domain"
	"resale-store/internal/notify"
	"resale-store/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory fakes for testing. UpdateAtomic and Save work on clones so a
// mutator that errors out leaves the stored product untouched, matching
// the transactional repository.

type fakeProductRepo struct {
	mu       sync.Mutex
	txMu     sync.Mutex // stands in for the product row lock
	products map[uuid.UUID]*domain.Product
	offers   *fakeOfferRepo

	failSave bool
}

func newFakeProductRepo(offers *fakeOfferRepo) *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[uuid.UUID]*domain.Product),
		offers:   offers,
	}
}

func cloneProduct(p *domain.Product) *domain.Product {
	cp := *p
	if p.Reservation != nil {
		r := *p.Reservation
		cp.Reservation = &r
	}
	if p.Auction != nil {
		a := *p.Auction
		cp.Auction = &a
	}
	cp.Offers = nil
	return &cp
}

func (f *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[product.ID] = cloneProduct(product)
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	f.mu.Lock()
	p, ok := f.products[id]
	f.mu.Unlock()
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	out := cloneProduct(p)
	if f.offers != nil {
		offers, err := f.offers.ListByProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		out.Offers = offers
	}
	return out, nil
}

// WithTx serializes callers the way the row lock does, so concurrent flows
// against the fake see each other's committed state, never a stale read.
func (f *fakeProductRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(ctx)
}

func (f *fakeProductRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProductRepo) Save(_ context.Context, product *domain.Product) error {
	if f.failSave {
		return errSaveFailed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	f.products[product.ID] = cloneProduct(product)
	return nil
}

func (f *fakeProductRepo) UpdateAtomic(ctx context.Context, id uuid.UUID, mutate func(p *domain.Product) error) (*domain.Product, error) {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	product, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(product); err != nil {
		return nil, err
	}
	if err := f.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (f *fakeProductRepo) ListReservedBefore(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id, p := range f.products {
		if p.Status == domain.ProductStatusReserved && p.Reservation != nil && !p.Reservation.ReservedAt.After(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeProductRepo) ListAuctionsDue(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id, p := range f.products {
		if p.Auction != nil && p.Auction.Ended(now) && p.Auction.HasBids() && p.Status != domain.ProductStatusSold {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[uuid.UUID]*domain.Offer
	order  []uuid.UUID
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[uuid.UUID]*domain.Offer)}
}

func cloneOffer(o *domain.Offer) *domain.Offer {
	cp := *o
	if o.AcceptedAt != nil {
		t := *o.AcceptedAt
		cp.AcceptedAt = &t
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}

func (f *fakeOfferRepo) Create(_ context.Context, offer *domain.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers[offer.ID] = cloneOffer(offer)
	f.order = append(f.order, offer.ID)
	return nil
}

func (f *fakeOfferRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return cloneOffer(o), nil
}

func (f *fakeOfferRepo) Save(_ context.Context, offer *domain.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.offers[offer.ID]; !ok {
		return domain.ErrOfferNotFound
	}
	f.offers[offer.ID] = cloneOffer(offer)
	return nil
}

func (f *fakeOfferRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]*domain.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Offer
	for _, id := range f.order {
		if o := f.offers[id]; o.ProductID == productID {
			out = append(out, cloneOffer(o))
		}
	}
	return out, nil
}

func (f *fakeOfferRepo) FindActiveAccepted(_ context.Context, productID uuid.UUID, acceptedAfter time.Time) (*domain.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		o := f.offers[id]
		if o.ProductID != productID || o.Status != domain.OfferStatusAccepted {
			continue
		}
		if o.PaidAt != nil || o.AcceptedAt == nil {
			continue
		}
		if o.AcceptedAt.After(acceptedAfter) {
			return cloneOffer(o), nil
		}
	}
	return nil, nil
}

func (f *fakeOfferRepo) ListExpiredAccepted(_ context.Context, cutoff time.Time) ([]*domain.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Offer
	for _, id := range f.order {
		o := f.offers[id]
		if o.Status != domain.OfferStatusAccepted || o.PaidAt != nil || o.AcceptedAt == nil {
			continue
		}
		if !o.AcceptedAt.After(cutoff) {
			out = append(out, cloneOffer(o))
		}
	}
	return out, nil
}

func (f *fakeOfferRepo) ExpireForProduct(_ context.Context, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.offers {
		if o.ProductID == productID &&
			(o.Status == domain.OfferStatusAccepted || o.Status == domain.OfferStatusCompleted) {
			o.Status = domain.OfferStatusExpired
		}
	}
	return nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*domain.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*domain.Sale)}
}

func (f *fakeSaleRepo) Create(_ context.Context, sale *domain.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *sale
	f.sales[sale.OrderID] = &cp
	return nil
}

func (f *fakeSaleRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*domain.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[orderID]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSaleRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]*domain.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Sale
	for _, s := range f.sales {
		if s.ProductID == productID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSaleRepo) DeleteByProduct(_ context.Context, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sales {
		if s.ProductID == productID {
			delete(f.sales, id)
		}
	}
	return nil
}

func (f *fakeSaleRepo) UpdateDelivery(_ context.Context, orderID uuid.UUID, status domain.DeliveryStatus, trackingNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[orderID]
	if !ok {
		return domain.ErrSaleNotFound
	}
	s.DeliveryStatus = status
	if trackingNumber != "" {
		s.TrackingNumber = trackingNumber
	}
	return nil
}

type fakeCharger struct {
	mu      sync.Mutex
	result  payment.ChargeResult
	err     error
	charges int
}

func (f *fakeCharger) CreateCharge(_ context.Context, _ float64, _ string, _ payment.Payer) (payment.ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges++
	return f.result, f.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Publish(_ context.Context, event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.Type)
	}
	return types
}

var (
	testLogger    = zap.NewNop()
	errSaveFailed = errors.New("save failed")
)
