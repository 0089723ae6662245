// Package kafka emits archived-content events for downstream consumers
// (alerting bots, enrichment pipelines).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/metrics"
)

// ArchivedEvent is the payload produced after a source sync writes rows
type ArchivedEvent struct {
	Platform  string `json:"platform"`
	Handle    string `json:"handle"`
	Inserted  int    `json:"inserted"`
	Timestamp int64  `json:"timestamp"`
}

// Producer publishes archived-content events to Kafka
type Producer struct {
	writer  *kafka.Writer
	topic   string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewProducer creates the event producer. An empty broker list returns
// a no-op producer so single-binary deployments run without Kafka.
func NewProducer(cfg *config.KafkaConfig, m *metrics.Metrics, logger zerolog.Logger) deps.EventProducer {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("no Kafka brokers configured, events disabled")
		return noopProducer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized")

	return &Producer{
		writer:  writer,
		topic:   cfg.Topic,
		metrics: m,
		logger:  logger.With().Str("component", "kafka_producer").Logger(),
	}
}

// PublishArchived sends one archived-content event, keyed by source so
// per-source ordering is preserved across partitions
func (p *Producer) PublishArchived(ctx context.Context, source domain.Source, inserted int) error {
	event := ArchivedEvent{
		Platform:  string(source.Platform),
		Handle:    source.Handle,
		Inserted:  inserted,
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := fmt.Sprintf("%s-%s", source.Platform, source.Handle)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		p.metrics.RecordKafkaError()
		p.logger.Error().Err(err).
			Str("key", key).
			Msg("Failed to send archived event")
		return fmt.Errorf("failed to send event: %w", err)
	}

	p.metrics.RecordKafkaEvent()
	p.logger.Debug().
		Str("key", key).
		Int("inserted", inserted).
		Msg("Archived event sent")

	return nil
}

// Close closes the underlying writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// noopProducer discards events when Kafka is not configured
type noopProducer struct{}

func (noopProducer) PublishArchived(context.Context, domain.Source, int) error { return nil }
func (noopProducer) Close() error                                              { return nil }
