package transport

import (
	"errors"
	"net/http"

	"resale-store/internal/domain"
	"resale-store/internal/middleware"

	"go.uber.org/zap"
)

// statusFor maps domain errors onto HTTP statuses. Validation failures are
// 400, missing records 404, lost races 409, lapsed holds and windows 410,
// gateway declines 402. Anything unmapped is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOfferNotFound),
		errors.Is(err, domain.ErrSaleNotFound),
		errors.Is(err, domain.ErrHandleNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidOfferPrice),
		errors.Is(err, domain.ErrBidBelowMinimum),
		errors.Is(err, domain.ErrNotAuction),
		errors.Is(err, domain.ErrInvalidProductStatus),
		errors.Is(err, domain.ErrInvalidDeliveryStatus),
		errors.Is(err, domain.ErrInvalidListing),
		errors.Is(err, domain.ErrInvalidClaim):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrProductSold),
		errors.Is(err, domain.ErrReservationHeld),
		errors.Is(err, domain.ErrHoldConflict),
		errors.Is(err, domain.ErrOfferNotPending),
		errors.Is(err, domain.ErrOfferNotAccepted),
		errors.Is(err, domain.ErrHolderMismatch),
		errors.Is(err, domain.ErrAuctionNotStarted),
		errors.Is(err, domain.ErrAuctionRunning):
		return http.StatusConflict

	case errors.Is(err, domain.ErrAuctionEnded),
		errors.Is(err, domain.ErrReservationExpired),
		errors.Is(err, domain.ErrOfferExpired):
		return http.StatusGone

	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired

	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status for a service error. Internal
// errors are logged and masked; domain errors pass their message through.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, status, "internal server error")
		return
	}
	middleware.RespondWithError(w, status, err.Error())
}
