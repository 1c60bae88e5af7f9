package events

import (
	"context"

	"go.uber.org/zap"
)

// Notifier receives domain events after a successful mutation. Delivery is
// best effort and never fails the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

// PublisherNotifier publishes synchronously, for deployments without a worker.
type PublisherNotifier struct {
	publisher Publisher
	logger    *zap.Logger
}

func NewPublisherNotifier(publisher Publisher, logger *zap.Logger) *PublisherNotifier {
	return &PublisherNotifier{publisher: publisher, logger: logger}
}

func (n *PublisherNotifier) Notify(ctx context.Context, event Event) {
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("Failed to publish domain event",
			zap.String("type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}
