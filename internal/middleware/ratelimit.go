package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig is a fixed-window limit keyed per caller.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

// RateLimit throttles a route using a redis fixed-window counter. Keyed on
// the authenticated user when present, the remote address otherwise. Redis
// being down fails open.
func RateLimit(client *redis.Client, cfg RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := r.RemoteAddr
			if identity, ok := GetIdentity(r.Context()); ok && identity.UserID != "" {
				caller = identity.UserID
			}
			key := fmt.Sprintf("%s:%s", cfg.KeyPrefix, caller)

			ctx := r.Context()
			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				logger.Error("Rate limit counter failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, key, cfg.Window)
			}

			if count > int64(cfg.RequestsPerWindow) {
				ttl, err := client.TTL(ctx, key).Result()
				if err != nil {
					ttl = cfg.Window
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(cfg.RequestsPerWindow-int(count)))
			next.ServeHTTP(w, r)
		})
	}
}
