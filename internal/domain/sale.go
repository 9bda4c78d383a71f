package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus tracks fulfilment of a committed sale.
type DeliveryStatus string

const (
	DeliveryStatusPaid      DeliveryStatus = "PAID"
	DeliveryStatusPreparing DeliveryStatus = "PREPARING"
	DeliveryStatusInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
)

// ValidDeliveryStatus reports whether s is one of the known delivery states.
func ValidDeliveryStatus(s DeliveryStatus) bool {
	switch s {
	case DeliveryStatusPaid, DeliveryStatusPreparing, DeliveryStatusInTransit, DeliveryStatusDelivered:
		return true
	}
	return false
}

// SaleBuyer is the full buyer record captured at payment time.
type SaleBuyer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// AsBuyer narrows the sale record to the identity used for hold matching.
func (b SaleBuyer) AsBuyer() Buyer {
	return Buyer{ID: b.ID, Name: b.Name, Email: b.Email}
}

// Sale is the terminal record written when a payment commits.
type Sale struct {
	OrderID        uuid.UUID      `json:"orderId"`
	ProductID      uuid.UUID      `json:"productId"`
	Buyer          SaleBuyer      `json:"buyer"`
	Amount         float64        `json:"amount"`
	PaymentMethod  string         `json:"paymentMethod"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus"`
	TrackingNumber string         `json:"trackingNumber,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}
