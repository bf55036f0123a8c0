package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
)

// NoopPublisher drops events. Used when Kafka is disabled.
type NoopPublisher struct {
	log *zap.Logger
}

var _ interfaces.EventPublisher = (*NoopPublisher)(nil)

// NewNoopPublisher returns a publisher that only logs at debug level.
func NewNoopPublisher(log *zap.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(_ context.Context, topic string, key string, _ any) error {
	p.log.Debug("kafka disabled, dropping event",
		zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
