package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Gateway   GatewayConfig
	Lifecycle LifecycleConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Channel carries buyer-facing lifecycle events over pub/sub.
	Channel string
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type KafkaConfig struct {
	// Brokers empty disables the archival event stream.
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type JWTConfig struct {
	Secret string
}

type GatewayConfig struct {
	// BaseURL of the external charge gateway.
	BaseURL string
	// Timeout is the caller-visible bound on a charge attempt; past it the
	// payment is treated as failed and rolled back.
	Timeout time.Duration
}

// LifecycleConfig carries the hold/offer/auction timing rules. The sweep
// intervals are the staleness bound on lazily-enforced expiry.
type LifecycleConfig struct {
	ReservationTTL     time.Duration
	OfferAcceptanceTTL time.Duration
	MinBidIncrement    float64
	ReservationSweep   time.Duration
	OfferSweep         time.Duration
	SettleSweep        time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_EVENT_CHANNEL", "storefront.events")
	viper.SetDefault("KAFKA_TOPIC", "storefront.lifecycle")
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 15)
	viper.SetDefault("RESERVATION_TTL_MINUTES", 15)
	viper.SetDefault("OFFER_ACCEPTANCE_TTL_HOURS", 24)
	viper.SetDefault("MIN_BID_INCREMENT", 5)
	viper.SetDefault("RESERVATION_SWEEP_SECONDS", 60)
	viper.SetDefault("OFFER_SWEEP_SECONDS", 3600)
	viper.SetDefault("SETTLE_SWEEP_SECONDS", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			Channel:  viper.GetString("REDIS_EVENT_CHANNEL"),
		},
		Kafka: KafkaConfig{
			Brokers: viper.GetStringSlice("KAFKA_BROKERS"),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Gateway: GatewayConfig{
			BaseURL: viper.GetString("GATEWAY_BASE_URL"),
			Timeout: time.Duration(viper.GetInt("GATEWAY_TIMEOUT_SECONDS")) * time.Second,
		},
		Lifecycle: LifecycleConfig{
			ReservationTTL:     time.Duration(viper.GetInt("RESERVATION_TTL_MINUTES")) * time.Minute,
			OfferAcceptanceTTL: time.Duration(viper.GetInt("OFFER_ACCEPTANCE_TTL_HOURS")) * time.Hour,
			MinBidIncrement:    viper.GetFloat64("MIN_BID_INCREMENT"),
			ReservationSweep:   time.Duration(viper.GetInt("RESERVATION_SWEEP_SECONDS")) * time.Second,
			OfferSweep:         time.Duration(viper.GetInt("OFFER_SWEEP_SECONDS")) * time.Second,
			SettleSweep:        time.Duration(viper.GetInt("SETTLE_SWEEP_SECONDS")) * time.Second,
		},
	}
}
