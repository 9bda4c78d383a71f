package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"resale-store/internal/clock"
	"resale-store/internal/config"
	"resale-store/internal/database"
	"resale-store/internal/logger"
	"resale-store/internal/notify"
	"resale-store/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, stopBackground context.CancelFunc, kafkaNotifier *notify.KafkaNotifier, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop the sweeper and drain the event stream
	stopBackground()
	if kafkaNotifier != nil {
		kafkaNotifier.WaitClosed()
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// Load .env when present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := dbService.DB()

	// Check database health
	health := dbService.Health()
	log.Info("Database health check", zap.Any("health", health))

	// Run migrations
	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully")

	// Background context for the sweeper and event stream
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Buyer-facing events go out over redis pub/sub; kafka, when brokers are
	// configured, keeps the durable archive stream.
	redisClient := database.NewRedis(cfg.Redis)
	notifiers := notify.Multi{notify.NewRedisNotifier(redisClient, cfg.Redis.Channel, log)}

	var kafkaNotifier *notify.KafkaNotifier
	if cfg.Kafka.Enabled() {
		kafkaNotifier = notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, 256, log)
		kafkaNotifier.Start(backgroundCtx)
		notifiers = append(notifiers, kafkaNotifier)
	}

	// Create server
	srv := server.NewServer(cfg, log, db, redisClient, notifiers, clock.NewSystem())

	// Run the expiry/settlement sweeps in the background
	go srv.Sweeper().Run(backgroundCtx)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, stopBackground, kafkaNotifier, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
