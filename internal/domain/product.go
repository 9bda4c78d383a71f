package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus tracks where a listing sits in its sale lifecycle.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "AVAILABLE"
	ProductStatusReserved  ProductStatus = "RESERVED"
	ProductStatusSold      ProductStatus = "SOLD"
)

// Buyer is the identity attached to reservations, offers and bids.
// Identity is issued elsewhere; we only consume it.
type Buyer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Reservation is a time-boxed exclusive hold on a product for one buyer
// during a direct-purchase checkout.
type Reservation struct {
	HolderID    string    `json:"holderId"`
	HolderEmail string    `json:"holderEmail"`
	ReservedAt  time.Time `json:"reservedAt"`
}

// HeldBy reports whether the reservation belongs to the given buyer,
// matched by id or email.
func (r *Reservation) HeldBy(b Buyer) bool {
	if r == nil {
		return false
	}
	return (b.ID != "" && r.HolderID == b.ID) || (b.Email != "" && r.HolderEmail == b.Email)
}

// Expired reports whether the reservation is older than ttl at the given instant.
func (r *Reservation) Expired(now time.Time, ttl time.Duration) bool {
	if r == nil {
		return false
	}
	return !now.Before(r.ReservedAt.Add(ttl))
}

// Auction holds the timed-auction state of an auction-type product.
// CurrentBid starts at StartPrice and only moves up.
type Auction struct {
	StartPrice         float64   `json:"startPrice"`
	CurrentBid         float64   `json:"currentBid"`
	HighestBidderID    string    `json:"highestBidderId,omitempty"`
	HighestBidderEmail string    `json:"highestBidderEmail,omitempty"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
}

// HasBids reports whether at least one bid has been accepted.
func (a *Auction) HasBids() bool {
	return a != nil && a.HighestBidderID != ""
}

// Ended reports whether the auction window has closed at the given instant.
func (a *Auction) Ended(now time.Time) bool {
	return a != nil && !now.Before(a.EndTime)
}

// Product is a resale listing. Reservation is present only while RESERVED;
// Auction is present only for auction-type listings.
type Product struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Status      ProductStatus `json:"status"`
	Reservation *Reservation  `json:"reservation,omitempty"`
	Auction     *Auction      `json:"auction,omitempty"`
	Offers      []*Offer      `json:"offers"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ActivelyReservedBy reports whether the product carries an unexpired
// reservation held by the given buyer.
func (p *Product) ActivelyReservedBy(b Buyer, now time.Time, ttl time.Duration) bool {
	return p.Status == ProductStatusReserved &&
		p.Reservation.HeldBy(b) &&
		!p.Reservation.Expired(now, ttl)
}

// ClearReservation drops any hold and returns the product to AVAILABLE.
// SOLD products are left untouched.
func (p *Product) ClearReservation() {
	if p.Status == ProductStatusSold {
		return
	}
	p.Reservation = nil
	p.Status = ProductStatusAvailable
}
