package events

import (
	"context"

	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the application log when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Info("Domain event",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("user_id", event.UserID),
		zap.String("project_id", event.ProjectID),
		zap.String("task_id", event.TaskID),
		zap.Any("data", event.Data),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
