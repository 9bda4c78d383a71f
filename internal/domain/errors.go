package domain

import "errors"

// Not-found errors.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrSaleNotFound    = errors.New("sale not found")
	ErrHandleNotFound  = errors.New("payment handle not found")
)

// Validation errors. Returned synchronously, no state change.
var (
	ErrInvalidOfferPrice     = errors.New("offer price must be positive")
	ErrBidBelowMinimum       = errors.New("bid below current bid plus minimum increment")
	ErrNotAuction            = errors.New("product is not an auction listing")
	ErrInvalidProductStatus  = errors.New("invalid product status")
	ErrInvalidDeliveryStatus = errors.New("invalid delivery status")
	ErrInvalidListing        = errors.New("invalid listing")
	ErrInvalidClaim          = errors.New("invalid payment claim")
)

// Conflict errors. Returned synchronously, no state change.
var (
	ErrProductSold      = errors.New("product already sold")
	ErrReservationHeld  = errors.New("product reserved by another buyer")
	ErrHoldConflict     = errors.New("another hold is active for this product")
	ErrOfferNotPending  = errors.New("offer is not pending")
	ErrOfferNotAccepted = errors.New("offer is not accepted")
	ErrHolderMismatch   = errors.New("caller does not match the claim holder")
)

// Expiry errors, for operations against a lapsed validity window.
var (
	ErrAuctionNotStarted  = errors.New("auction has not started")
	ErrAuctionEnded       = errors.New("auction has ended")
	ErrAuctionRunning     = errors.New("auction has not ended yet")
	ErrReservationExpired = errors.New("reservation has expired")
	ErrOfferExpired       = errors.New("offer acceptance has expired")
)

// ErrPaymentFailed wraps gateway failures; the hold is always rolled back
// before this error reaches the caller.
var ErrPaymentFailed = errors.New("payment failed")
