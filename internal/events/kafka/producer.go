// Package kafka publishes auth domain events.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
)

// Producer wraps a sarama SyncProducer. Events are JSON encoded and keyed
// by user id so consumers see per-user ordering.
type Producer struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

var _ interfaces.EventPublisher = (*Producer)(nil)

// NewProducer connects a synchronous producer to brokers.
func NewProducer(brokers []string, log *zap.Logger) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &Producer{producer: producer, log: log}, nil
}

// Publish sends one event to topic. Delivery failures are returned to the
// caller; callers decide whether the operation itself fails.
func (p *Producer) Publish(ctx context.Context, topic string, key string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}
	p.log.Debug("event published",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts the underlying producer down.
func (p *Producer) Close() error {
	return p.producer.Close()
}
