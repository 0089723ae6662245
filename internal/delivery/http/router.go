package http

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
)

// Router registers archive HTTP routes
type Router struct {
	handler *Handler
	logger  zerolog.Logger
}

// NewRouter creates a new archive router
func NewRouter(handler *Handler, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

// RegisterRoutes registers archive routes on the router
func (r *Router) RegisterRoutes(rt *router.Router) {
	rt.GET("/search", r.handler.Search)
	rt.GET("/home", r.handler.Home)
	rt.POST("/sync", r.handler.Sync)
	rt.POST("/backfill", r.handler.Backfill)
	rt.GET("/health", r.handler.Health)
	rt.HEAD("/health", r.handler.Health)
}
