package database

import (
	"resale-store/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds the shared redis client used for rate limiting and
// event fan-out.
func NewRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
