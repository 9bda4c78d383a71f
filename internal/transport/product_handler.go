package transport

import (
	"net/http"

	"resale-store/internal/clock"
	"resale-store/internal/middleware"
	"resale-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfferRequest represents a buyer's negotiation offer payload
type OfferRequest struct {
	OfferedPrice float64 `json:"offeredPrice" validate:"required,gt=0"`
	Message      string  `json:"message"`
}

// BidRequest represents an auction bid payload
type BidRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// ReleasedResponse confirms a reservation release
type ReleasedResponse struct {
	ProductID string `json:"productId"`
	Released  bool   `json:"released"`
}

// ProductHandler handles HTTP requests for product lifecycle operations
type ProductHandler struct {
	products     *service.ProductService
	reservations *service.ReservationService
	offers       *service.OfferService
	auctions     *service.AuctionService
	clock        clock.Clock
	logger       *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(
	products *service.ProductService,
	reservations *service.ReservationService,
	offers *service.OfferService,
	auctions *service.AuctionService,
	clk clock.Clock,
	logger *zap.Logger,
) *ProductHandler {
	return &ProductHandler{
		products:     products,
		reservations: reservations,
		offers:       offers,
		auctions:     auctions,
		clock:        clk,
		logger:       logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, bidLimiter func(http.Handler) http.Handler) {
	r.Route("/api/products/{id}", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.Get)
		r.Post("/reserve", h.Reserve)
		r.Delete("/reserve", h.Release)
		r.Post("/offers", h.SubmitOffer)
		r.With(bidLimiter).Post("/bids", h.PlaceBid)
		r.Post("/settle", h.Settle)
	})
}

// Get returns a product with its offer history
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.Get(r.Context(), productID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Reserve places a reservation hold for the authenticated buyer
func (h *ProductHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	product, err := h.reservations.Acquire(r.Context(), productID, identity.Buyer())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Reservation acquired",
		zap.String("product_id", productID.String()),
		zap.String("holder_id", identity.UserID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Release drops the reservation hold on a product
func (h *ProductHandler) Release(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.reservations.Release(r.Context(), productID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ReleasedResponse{
		ProductID: productID.String(),
		Released:  true,
	})
}

// SubmitOffer records a negotiation offer from the authenticated buyer
func (h *ProductHandler) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req OfferRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Offer validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	offer, err := h.offers.Submit(r.Context(), productID, identity.Buyer(), req.OfferedPrice, req.Message)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Offer submitted",
		zap.String("offer_id", offer.ID.String()),
		zap.String("product_id", productID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, offer)
}

// PlaceBid records an auction bid from the authenticated buyer
func (h *ProductHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req BidRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Bid validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	result, err := h.auctions.PlaceBid(r.Context(), productID, identity.Buyer(), req.Amount)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Bid accepted",
		zap.String("product_id", productID.String()),
		zap.Float64("amount", req.Amount),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Settle closes an ended auction, marking the product sold when it has bids
func (h *ProductHandler) Settle(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.auctions.Settle(r.Context(), productID, h.clock.Now())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}
