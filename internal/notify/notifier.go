package notify

import "context"

// Notifier delivers lifecycle events to the notification sink. Delivery is
// best effort; the state transition that produced the event has already
// committed by the time Publish runs.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// Nop discards events; used in tests and when no sink is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Multi fans an event out to every configured sink.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event Event) {
	for _, n := range m {
		n.Publish(ctx, event)
	}
}
