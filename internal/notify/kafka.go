package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier streams lifecycle events to a topic for archival and
// reporting. Writes are buffered through an inbox so the hot path never
// blocks on the broker.
type KafkaNotifier struct {
	writer  *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  *zap.Logger
}

// NewKafkaNotifier builds the archival producer. Start must be called
// before events are published.
func NewKafkaNotifier(brokers []string, topic string, buf int, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

// Start drains the inbox until ctx is cancelled, then flushes what remains
// and closes the writer.
func (n *KafkaNotifier) Start(ctx context.Context) {
	go func() {
		defer close(n.closeCh)
		for {
			select {
			case <-ctx.Done():
				// Drain without closing the inbox; a late Publish from a
				// finishing sweep must not panic, it just gets dropped.
				for {
					select {
					case m := <-n.inbox:
						n.write(m)
					default:
						_ = n.writer.Close()
						return
					}
				}
			case m := <-n.inbox:
				n.write(m)
			}
		}
	}()
}

func (n *KafkaNotifier) write(m kafka.Message) {
	if err := n.writer.WriteMessages(context.Background(), m); err != nil {
		n.logger.Warn("Failed to write event to kafka", zap.Error(err))
	}
}

// Publish enqueues the event, keyed by product id so per-product ordering
// is preserved within a partition. Drops the event if the inbox is full.
func (n *KafkaNotifier) Publish(_ context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.ProductID),
		Value: payload,
		Time:  time.Now(),
	}

	select {
	case n.inbox <- msg:
	default:
		n.logger.Warn("Event inbox full, dropping archival event",
			zap.String("type", event.Type),
			zap.String("product_id", event.ProductID),
		)
	}
}

// WaitClosed blocks until the drain loop has flushed and exited.
func (n *KafkaNotifier) WaitClosed() {
	<-n.closeCh
}
