package twitterapi

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/0xpolarzero/nightwatch/config"
)

// Module provides the tweet feed for fx DI
var Module = fx.Module("twitterapi",
	fx.Provide(NewClientFx),
)

// NewClientFx creates the tweet feed client for fx DI
func NewClientFx(cfg *config.TwitterConfig, logger zerolog.Logger) *Client {
	return NewClient(cfg, logger)
}
