package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"resale-store/internal/clock"
	"resale-store/internal/config"
	custommiddleware "resale-store/internal/middleware"
	"resale-store/internal/notify"
	"resale-store/internal/payment"
	"resale-store/internal/repository"
	"resale-store/internal/service"
	"resale-store/internal/sweeper"
	"resale-store/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	db      *sql.DB
	redis   *redis.Client
	sweeper *sweeper.Sweeper
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *sql.DB,
	redisClient *redis.Client,
	notifier notify.Notifier,
	clk clock.Clock,
) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.Logging(logger))
	router.Use(custommiddleware.Recovery(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	offerRepo := repository.NewOfferRepository(db)
	productRepo := repository.NewProductRepository(db, offerRepo)
	saleRepo := repository.NewSaleRepository(db)

	// Initialize services
	lc := cfg.Lifecycle
	charger := payment.NewGatewayClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, logger)

	productService := service.NewProductService(productRepo, clk, lc.ReservationTTL, logger)
	reservationService := service.NewReservationService(productRepo, offerRepo, clk, lc.ReservationTTL, lc.OfferAcceptanceTTL, logger)
	offerService := service.NewOfferService(productRepo, offerRepo, notifier, clk, lc.OfferAcceptanceTTL, lc.ReservationTTL, logger)
	auctionService := service.NewAuctionService(productRepo, clk, lc.MinBidIncrement, logger)
	paymentService := service.NewPaymentService(
		productRepo, offerRepo, saleRepo,
		charger, notifier, clk,
		cfg.Gateway.Timeout, lc.ReservationTTL, lc.OfferAcceptanceTTL,
		logger,
	)
	adminService := service.NewAdminService(productRepo, offerRepo, saleRepo, clk, logger)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, reservationService, offerService, auctionService, clk, logger)
	paymentHandler := transport.NewPaymentHandler(paymentService, logger)
	adminHandler := transport.NewAdminHandler(adminService, offerService, logger)

	// Create route middleware
	authMiddleware := custommiddleware.Auth(cfg.JWT.Secret, logger)
	adminOnly := custommiddleware.RequireAdmin(logger)
	bidLimiter := custommiddleware.RateLimit(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:bids",
	}, logger)

	// Register routes
	productHandler.RegisterRoutes(router, authMiddleware, bidLimiter)
	paymentHandler.RegisterRoutes(router, authMiddleware)
	adminHandler.RegisterRoutes(router, authMiddleware, adminOnly)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		sweeper: sweeper.New(
			reservationService, offerService, auctionService,
			clk,
			lc.ReservationSweep, lc.OfferSweep, lc.SettleSweep,
			logger,
		),
	}

	return server
}

// Sweeper exposes the background expiry/settlement loop for main to run.
func (s *Server) Sweeper() *sweeper.Sweeper {
	return s.sweeper
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
