package telegram

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
)

// Module provides the Telegram feed for fx DI
var Module = fx.Module("telegram",
	fx.Provide(NewMTProtoClientFx),
)

// NewMTProtoClientFx creates the MTProto client with lifecycle hooks for fx DI
func NewMTProtoClientFx(
	lc fx.Lifecycle,
	cfg *config.TelegramConfig,
	logger zerolog.Logger,
) (deps.TelegramFeed, error) {
	client, err := NewMTProtoClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Connect(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return client, nil
}
