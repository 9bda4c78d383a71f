package notify

import (
	"fmt"
	"time"

	"resale-store/internal/domain"

	"github.com/google/uuid"
)

// Event types surfaced to the buyer-facing notification feed.
const (
	EventOfferAccepted    = "offer_accepted"
	EventOfferRejected    = "offer_rejected"
	EventOfferExpired     = "offer_expired"
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"
)

// Event is the typed lifecycle notification scoped to the record that
// changed. Consumers subscribe to exactly these, not to a generic
// "something updated" broadcast.
type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	ProductID  string    `json:"productId"`
	OfferID    string    `json:"offerId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newEvent(eventType, title, message string, productID uuid.UUID, now time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Title:      title,
		Message:    message,
		ProductID:  productID.String(),
		OccurredAt: now,
	}
}

// OfferAccepted builds the acceptance notification for the offer's buyer.
func OfferAccepted(offer *domain.Offer, now time.Time) Event {
	ev := newEvent(EventOfferAccepted, "Offer accepted",
		fmt.Sprintf("Your offer of %.2f was accepted. Complete payment within 24 hours.", offer.OfferedPrice),
		offer.ProductID, now)
	ev.OfferID = offer.ID.String()
	return ev
}

// OfferRejected builds the rejection notification for the offer's buyer.
func OfferRejected(offer *domain.Offer, now time.Time) Event {
	ev := newEvent(EventOfferRejected, "Offer rejected",
		fmt.Sprintf("Your offer of %.2f was rejected.", offer.OfferedPrice),
		offer.ProductID, now)
	ev.OfferID = offer.ID.String()
	return ev
}

// OfferExpired builds the expiry notification emitted by the sweep.
func OfferExpired(offer *domain.Offer, now time.Time) Event {
	ev := newEvent(EventOfferExpired, "Offer expired",
		fmt.Sprintf("Your accepted offer of %.2f expired unpaid and the item was released.", offer.OfferedPrice),
		offer.ProductID, now)
	ev.OfferID = offer.ID.String()
	return ev
}

// PaymentSucceeded builds the commit notification.
func PaymentSucceeded(sale *domain.Sale, offerID uuid.UUID, now time.Time) Event {
	ev := newEvent(EventPaymentSucceeded, "Payment received",
		fmt.Sprintf("Payment of %.2f confirmed. Order %s is being prepared.", sale.Amount, sale.OrderID),
		sale.ProductID, now)
	if offerID != uuid.Nil {
		ev.OfferID = offerID.String()
	}
	return ev
}

// PaymentFailed builds the rollback notification.
func PaymentFailed(productID, offerID uuid.UUID, reason string, now time.Time) Event {
	ev := newEvent(EventPaymentFailed, "Payment failed",
		fmt.Sprintf("Your payment did not complete: %s. The item was released.", reason),
		productID, now)
	if offerID != uuid.Nil {
		ev.OfferID = offerID.String()
	}
	return ev
}
