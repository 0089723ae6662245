// Package app assembles the archive service.
package app

import (
	"go.uber.org/fx"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure"
)

// CreateApp creates the fx application options
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(
			config.Out,
		),
		infrastructure.Module,
		archive.Module,
	)
}
