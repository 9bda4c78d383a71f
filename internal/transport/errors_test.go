package transport

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"resale-store/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrProductNotFound, http.StatusNotFound},
		{domain.ErrOfferNotFound, http.StatusNotFound},
		{domain.ErrSaleNotFound, http.StatusNotFound},
		{domain.ErrHandleNotFound, http.StatusNotFound},

		{domain.ErrInvalidOfferPrice, http.StatusBadRequest},
		{domain.ErrBidBelowMinimum, http.StatusBadRequest},
		{domain.ErrNotAuction, http.StatusBadRequest},
		{domain.ErrInvalidProductStatus, http.StatusBadRequest},
		{domain.ErrInvalidDeliveryStatus, http.StatusBadRequest},
		{domain.ErrInvalidListing, http.StatusBadRequest},
		{domain.ErrInvalidClaim, http.StatusBadRequest},

		{domain.ErrProductSold, http.StatusConflict},
		{domain.ErrReservationHeld, http.StatusConflict},
		{domain.ErrHoldConflict, http.StatusConflict},
		{domain.ErrOfferNotPending, http.StatusConflict},
		{domain.ErrOfferNotAccepted, http.StatusConflict},
		{domain.ErrHolderMismatch, http.StatusConflict},
		{domain.ErrAuctionNotStarted, http.StatusConflict},
		{domain.ErrAuctionRunning, http.StatusConflict},

		{domain.ErrAuctionEnded, http.StatusGone},
		{domain.ErrReservationExpired, http.StatusGone},
		{domain.ErrOfferExpired, http.StatusGone},

		{domain.ErrPaymentFailed, http.StatusPaymentRequired},

		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "error %v", tc.err)
	}
}

func TestStatusFor_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: bid 90.00, need at least 105.00", domain.ErrBidBelowMinimum)
	assert.Equal(t, http.StatusBadRequest, statusFor(wrapped))

	wrapped = fmt.Errorf("%w: insufficient funds", domain.ErrPaymentFailed)
	assert.Equal(t, http.StatusPaymentRequired, statusFor(wrapped))
}
