package activity

import (
	"context"

	usecase "taskaty/backend/internal/usecase/auth"

	"go.uber.org/zap"
)

// LogPublisher records events in the application log.
type LogPublisher struct {
	logger *zap.Logger
}

var _ usecase.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event usecase.Event) {
	p.logger.Info("Activity",
		zap.String("type", event.Type),
		zap.String("user_id", event.UserID),
		zap.Time("occurred_at", event.OccurredAt),
	)
}
