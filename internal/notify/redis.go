package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier publishes events on a pub/sub channel for real-time
// delivery to connected clients.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisNotifier creates a pub/sub backed notifier.
func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

func (n *RedisNotifier) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal event",
			zap.String("type", event.Type),
			zap.Error(err),
		)
		return
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("product_id", event.ProductID),
			zap.Error(err),
		)
	}
}
