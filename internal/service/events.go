package service

import (
	"context"

	commonredis "iheartcare/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	EventMonitoringStarted = "monitoring.started"
	EventMonitoringStopped = "monitoring.stopped"
	EventAlertCreated      = "alert.created"
)

// EventPublisher publishes domain events after commit. Failures never fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

// RedisEventPublisher appends events to a Redis stream.
type RedisEventPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewRedisEventPublisher(client *redis.Client, stream string, logger *zap.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, stream: stream, logger: logger}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, eventType string, payload any) {
	id, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, eventType, payload)
	if err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("stream", p.stream),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("Event published",
		zap.String("stream", p.stream),
		zap.String("event_type", eventType),
		zap.String("message_id", id),
	)
}

// NoopEventPublisher drops events (Redis unavailable).
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, string, any) {}
