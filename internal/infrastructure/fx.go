package infrastructure

import (
	"go.uber.org/fx"

	"github.com/0xpolarzero/nightwatch/internal/infrastructure/database"
	httpfx "github.com/0xpolarzero/nightwatch/internal/infrastructure/http"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/kafka"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/logger"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/metrics"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/telegram"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/twitterapi"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module,
	metrics.Module,
	twitterapi.Module,
	telegram.Module,
	kafka.Module,
	httpfx.Module,
)
