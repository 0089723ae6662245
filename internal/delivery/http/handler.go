// Package http exposes the archive service's HTTP API.
package http

import (
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/pkg/httputil"
)

// Handler handles archive HTTP requests
type Handler struct {
	syncUC   domain.SyncUseCase
	searchUC domain.SearchUseCase
	logger   zerolog.Logger
}

// NewHandler creates a new archive HTTP handler
func NewHandler(syncUC domain.SyncUseCase, searchUC domain.SearchUseCase, logger zerolog.Logger) *Handler {
	return &Handler{
		syncUC:   syncUC,
		searchUC: searchUC,
		logger:   logger.With().Str("component", "http_handler").Logger(),
	}
}

// Search handles GET /search?query=
func (h *Handler) Search(ctx *fasthttp.RequestCtx) {
	query := string(ctx.QueryArgs().Peek("query"))

	result, err := h.searchUC.Search(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrMissingQuery) {
			httputil.WriteError(ctx, fasthttp.StatusBadRequest, "query parameter is required")
			return
		}
		h.logger.Error().Err(err).Str("query", query).Msg("search failed")
		httputil.WriteError(ctx, fasthttp.StatusInternalServerError, "search failed")
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, result)
}

// Home handles GET /home?limit=
func (h *Handler) Home(ctx *fasthttp.RequestCtx) {
	limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))

	feed, err := h.searchUC.Home(ctx, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("home feed failed")
		httputil.WriteError(ctx, fasthttp.StatusInternalServerError, "home feed failed")
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, feed)
}

// Sync handles POST /sync. Partial failure still returns the counts:
// operators need to see what succeeded alongside what broke.
func (h *Handler) Sync(ctx *fasthttp.RequestCtx) {
	report, err := h.syncUC.Sync(ctx, httputil.BearerToken(ctx))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			httputil.WriteError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
			return
		}
		h.logger.Error().Err(err).Msg("sync finished with errors")
		httputil.WriteJSON(ctx, fasthttp.StatusInternalServerError, syncResponse{
			Inserted: insertedCounts(report),
			Error:    err.Error(),
		})
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, syncResponse{
		Message:  "sync completed",
		Inserted: insertedCounts(report),
	})
}

// Backfill handles POST /backfill?platform=&handle=
func (h *Handler) Backfill(ctx *fasthttp.RequestCtx) {
	source := domain.Source{
		Platform: domain.Platform(ctx.QueryArgs().Peek("platform")),
		Handle:   string(ctx.QueryArgs().Peek("handle")),
	}

	report, err := h.syncUC.Backfill(ctx, httputil.BearerToken(ctx), source)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			httputil.WriteError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
		case errors.Is(err, domain.ErrUnknownPlatform):
			httputil.WriteError(ctx, fasthttp.StatusBadRequest, "unknown platform")
		case errors.Is(err, domain.ErrMissingHandle):
			httputil.WriteError(ctx, fasthttp.StatusBadRequest, "query parameter handle is required")
		default:
			h.logger.Error().Err(err).
				Str("platform", string(source.Platform)).
				Str("handle", source.Handle).
				Msg("backfill failed")
			httputil.WriteJSON(ctx, fasthttp.StatusInternalServerError, syncResponse{
				Inserted: insertedCounts(report),
				Error:    err.Error(),
			})
		}
		return
	}

	httputil.WriteJSON(ctx, fasthttp.StatusOK, syncResponse{
		Message:  "backfill completed",
		Inserted: insertedCounts(report),
	})
}

// Health handles GET and HEAD /health
func (h *Handler) Health(ctx *fasthttp.RequestCtx) {
	status := h.searchUC.Health(ctx)

	code := fasthttp.StatusOK
	if !status.DatabaseConnected {
		code = fasthttp.StatusServiceUnavailable
	}

	if ctx.IsHead() {
		ctx.SetStatusCode(code)
		return
	}
	httputil.WriteJSON(ctx, code, status)
}

type syncResponse struct {
	Message  string                  `json:"message"`
	Inserted map[domain.Platform]int `json:"inserted"`
	Error    string                  `json:"error,omitempty"`
}

// insertedCounts keeps the response map non-null even when the use
// case returned no report
func insertedCounts(report *domain.SyncReport) map[domain.Platform]int {
	if report == nil {
		return map[domain.Platform]int{}
	}
	return report.Inserted
}
