package transport

import (
	"net/http"
	"time"

	"resale-store/internal/domain"
	"resale-store/internal/middleware"
	"resale-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents a new listing payload
type CreateProductRequest struct {
	Name        string               `json:"name" validate:"required"`
	Description string               `json:"description"`
	Price       float64              `json:"price" validate:"required,gt=0"`
	Auction     *CreateAuctionWindow `json:"auction"`
}

// CreateAuctionWindow represents the optional auction window on a listing
type CreateAuctionWindow struct {
	StartPrice float64   `json:"startPrice" validate:"required,gt=0"`
	StartTime  time.Time `json:"startTime" validate:"required"`
	EndTime    time.Time `json:"endTime" validate:"required"`
}

// OverrideStatusRequest represents an admin status override payload
type OverrideStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE SOLD"`
}

// UpdateDeliveryRequest represents a delivery progress update payload
type UpdateDeliveryRequest struct {
	DeliveryStatus string `json:"deliveryStatus" validate:"required,oneof=PAID PREPARING IN_TRANSIT DELIVERED"`
	TrackingNumber string `json:"trackingNumber"`
}

// AdminHandler handles back-office HTTP requests
type AdminHandler struct {
	admin  *service.AdminService
	offers *service.OfferService
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin *service.AdminService, offers *service.OfferService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, offers: offers, logger: logger}
}

// RegisterRoutes registers all admin routes behind auth and the admin role
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, adminOnly func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminOnly)

		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}/status", h.OverrideStatus)
		r.Post("/offers/{id}/accept", h.AcceptOffer)
		r.Post("/offers/{id}/reject", h.RejectOffer)
		r.Put("/sales/{id}/delivery", h.UpdateDelivery)
	})
}

// CreateProduct lists a new product
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Listing validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if req.Auction != nil {
		in.Auction = &service.AuctionInput{
			StartPrice: req.Auction.StartPrice,
			StartTime:  req.Auction.StartTime,
			EndTime:    req.Auction.EndTime,
		}
	}

	product, err := h.admin.CreateProduct(r.Context(), in)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Product listed", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// OverrideStatus force-sets a product to AVAILABLE or SOLD. Reverting to
// AVAILABLE clears the sale record and expires its offers so the listing
// is clean for resale.
func (h *AdminHandler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req OverrideStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.admin.OverrideStatus(r.Context(), productID, domain.ProductStatus(req.Status))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Product status overridden",
		zap.String("product_id", productID.String()),
		zap.String("status", req.Status),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AcceptOffer accepts a pending offer, granting its buyer payment exclusivity
func (h *AdminHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	offer, err := h.offers.Accept(r.Context(), offerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Offer accepted", zap.String("offer_id", offerID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}

// RejectOffer rejects a pending offer
func (h *AdminHandler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	offer, err := h.offers.Reject(r.Context(), offerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Offer rejected", zap.String("offer_id", offerID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}

// UpdateDelivery advances a sale's delivery status
func (h *AdminHandler) UpdateDelivery(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateDeliveryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sale, err := h.admin.UpdateDelivery(r.Context(), orderID, domain.DeliveryStatus(req.DeliveryStatus), req.TrackingNumber)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Delivery updated",
		zap.String("order_id", orderID.String()),
		zap.String("delivery_status", req.DeliveryStatus),
	)
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}
