package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"project-tracker/backend/internal/events"

	"go.uber.org/zap"
)

// EventNotifier hands domain events to the job queue so publishing happens
// off the request path.
type EventNotifier struct {
	queue     *JobQueue
	queueName string
	logger    *zap.Logger
}

func NewEventNotifier(queue *JobQueue, queueName string, logger *zap.Logger) *EventNotifier {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &EventNotifier{queue: queue, queueName: queueName, logger: logger}
}

func (n *EventNotifier) Notify(ctx context.Context, event events.Event) {
	// the request context may be cancelled as soon as the response is written
	if err := n.queue.Enqueue(context.WithoutCancel(ctx), n.queueName, JobTypeDomainEvent, event); err != nil {
		n.logger.Warn("Failed to enqueue domain event",
			zap.String("type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

// PublishEventHandler forwards queued domain events to the publisher.
func PublishEventHandler(publisher events.Publisher) JobHandler {
	return func(ctx context.Context, job *Job) error {
		var event events.Event
		if err := json.Unmarshal(job.Payload, &event); err != nil {
			return fmt.Errorf("invalid event payload: %w", err)
		}
		return publisher.Publish(ctx, event)
	}
}
