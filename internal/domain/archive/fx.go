// Package archive wires the archive domain into the fx graph.
package archive

import (
	"go.uber.org/fx"

	httpDelivery "github.com/0xpolarzero/nightwatch/internal/delivery/http"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/repository/postgres"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/usecase"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/http/server"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/twitterapi"
)

// Module provides archive domain components for fx DI
var Module = fx.Module("archive",
	fx.Provide(
		func(c *twitterapi.Client) deps.TweetFeed { return c },
		postgres.NewArchiveRepository,
		postgres.NewSearchRepository,
		usecase.NewSyncUseCase,
		usecase.NewSearchUseCase,
		httpDelivery.NewHandler,
		httpDelivery.NewRouter,
	),
	fx.Invoke(registerRoutes),
)

// registerRoutes registers archive HTTP routes on the server
func registerRoutes(srv *server.Server, router *httpDelivery.Router) {
	router.RegisterRoutes(srv.Router)
}
