package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/metrics"
)

// Module provides the Kafka event producer for fx DI
var Module = fx.Module("kafka",
	fx.Provide(NewProducerFx),
)

// NewProducerFx creates the event producer with lifecycle hooks for fx DI
func NewProducerFx(
	lc fx.Lifecycle,
	cfg *config.KafkaConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) deps.EventProducer {
	producer := NewProducer(cfg, m, logger)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})

	return producer
}
