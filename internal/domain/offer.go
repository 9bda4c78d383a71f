package domain

import (
	"time"

	"github.com/google/uuid"
)

// OfferStatus tracks the accept/reject/expire lifecycle of a price offer.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "PENDING"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusExpired   OfferStatus = "EXPIRED"
	OfferStatusCompleted OfferStatus = "COMPLETED"
)

// Offer is a customer price offer on a product. An ACCEPTED offer acts as a
// soft hold on the product until it is paid or the acceptance window lapses.
type Offer struct {
	ID           uuid.UUID   `json:"id"`
	ProductID    uuid.UUID   `json:"productId"`
	BuyerID      string      `json:"buyerId"`
	BuyerEmail   string      `json:"buyerEmail"`
	OfferedPrice float64     `json:"offeredPrice"`
	Message      string      `json:"message,omitempty"`
	Status       OfferStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	AcceptedAt   *time.Time  `json:"acceptedAt,omitempty"`
	PaidAt       *time.Time  `json:"paidAt,omitempty"`
}

// MadeBy reports whether the offer belongs to the given buyer, matched by
// id or email.
func (o *Offer) MadeBy(b Buyer) bool {
	if o == nil {
		return false
	}
	return (b.ID != "" && o.BuyerID == b.ID) || (b.Email != "" && o.BuyerEmail == b.Email)
}

// AcceptanceExpired reports whether an accepted, unpaid offer has outlived
// its payment window at the given instant.
func (o *Offer) AcceptanceExpired(now time.Time, ttl time.Duration) bool {
	if o == nil || o.Status != OfferStatusAccepted || o.AcceptedAt == nil || o.PaidAt != nil {
		return false
	}
	return !now.Before(o.AcceptedAt.Add(ttl))
}
