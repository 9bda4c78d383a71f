package transport

import (
	"net/http"

	"resale-store/internal/domain"
	"resale-store/internal/middleware"
	"resale-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InitiatePaymentRequest represents a payment initiation payload. The hold
// being paid for is either a reservation on a product or an accepted offer.
type InitiatePaymentRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=reservation offer"`
	ProductID string `json:"productId" validate:"required,uuid"`
	OfferID   string `json:"offerId" validate:"omitempty,uuid"`
	Method    string `json:"method" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
}

// RollbackRequest carries the caller's reason for abandoning a payment
type RollbackRequest struct {
	Reason string `json:"reason"`
}

// RollbackResponse confirms a rollback
type RollbackResponse struct {
	HandleID   string `json:"handleId"`
	RolledBack bool   `json:"rolledBack"`
}

// PaymentHandler handles HTTP requests for the payment flow
type PaymentHandler struct {
	payments *service.PaymentService
	logger   *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Initiate)
		r.Post("/{id}/commit", h.Commit)
		r.Post("/{id}/rollback", h.Rollback)
	})
}

// Initiate verifies the caller's claim on the product and attempts the charge
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Payment validation failed", zap.Error(err))

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

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	claim := service.Claim{
		Kind:      service.ClaimKind(req.Kind),
		ProductID: productID,
	}
	if claim.Kind == service.ClaimOffer {
		offerID, err := uuid.Parse(req.OfferID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "offer payments require a valid offer id")
			return
		}
		claim.OfferID = offerID
	}

	buyer := domain.SaleBuyer{
		ID:      identity.UserID,
		Name:    identity.Name,
		Email:   identity.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	handle, err := h.payments.Initiate(r.Context(), claim, buyer, req.Method)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Payment initiated",
		zap.String("handle_id", handle.ID.String()),
		zap.String("product_id", productID.String()),
		zap.Float64("amount", handle.Amount),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, handle)
}

// Commit finalizes a charged payment: records the sale and marks the product sold
func (h *PaymentHandler) Commit(w http.ResponseWriter, r *http.Request) {
	handleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid payment handle id")
		return
	}

	sale, err := h.payments.Commit(r.Context(), handleID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Payment committed",
		zap.String("order_id", sale.OrderID.String()),
		zap.String("product_id", sale.ProductID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

// Rollback abandons an in-flight payment and releases its hold. Rolling
// back an unknown or already-finished handle succeeds quietly.
func (h *PaymentHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	handleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid payment handle id")
		return
	}

	var req RollbackRequest
	_ = middleware.DecodeAndValidate(r, &req)
	if req.Reason == "" {
		req.Reason = "buyer cancelled"
	}

	if err := h.payments.Rollback(r.Context(), handleID, req.Reason); err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RollbackResponse{
		HandleID:   handleID.String(),
		RolledBack: true,
	})
}
