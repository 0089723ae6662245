package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/cache"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/metrics"
)

// searchUseCase implements domain.SearchUseCase
type searchUseCase struct {
	cfg            *config.SearchConfig
	repo           deps.SearchRepository
	results        *cache.TTL[*domain.SearchResult]
	home           *cache.TTL[*domain.HomeFeed]
	metrics        *metrics.Metrics
	feedConfigured bool
	logger         zerolog.Logger
}

// NewSearchUseCase creates a new search use case
func NewSearchUseCase(
	cfg *config.SearchConfig,
	twitterCfg *config.TwitterConfig,
	repo deps.SearchRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) domain.SearchUseCase {
	return &searchUseCase{
		cfg:            cfg,
		repo:           repo,
		results:        cache.NewTTL[*domain.SearchResult](cfg.CacheTTL),
		home:           cache.NewTTL[*domain.HomeFeed](cfg.CacheTTL),
		metrics:        m,
		feedConfigured: twitterCfg.APIKey != "",
		logger:         logger.With().Str("component", "search_usecase").Logger(),
	}
}

// Search runs full-text search over both platforms concurrently.
// Results are cached per query; archived content is immutable, so a
// stale window only delays new items, never corrupts old ones.
func (u *searchUseCase) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	if query == "" {
		return nil, domain.ErrMissingQuery
	}

	start := time.Now()
	if cached, ok := u.results.Get(query); ok {
		u.metrics.RecordSearch(time.Since(start).Seconds(), true)
		return cached, nil
	}

	result := &domain.SearchResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tweets, err := u.repo.SearchTweets(gctx, query)
		if err != nil {
			return fmt.Errorf("search tweets: %w", err)
		}
		result.Tweets = tweets
		return nil
	})
	g.Go(func() error {
		messages, err := u.repo.SearchMessages(gctx, query)
		if err != nil {
			return fmt.Errorf("search messages: %w", err)
		}
		result.Messages = messages
		return nil
	})
	if err := g.Wait(); err != nil {
		u.logger.Error().Err(err).Str("query", query).Msg("search failed")
		return nil, err
	}

	u.results.Set(query, result)
	u.metrics.RecordSearch(time.Since(start).Seconds(), false)

	u.logger.Debug().
		Str("query", query).
		Int("tweets", len(result.Tweets)).
		Int("messages", len(result.Messages)).
		Msg("search served")

	return result, nil
}

// Home returns the latest archived items per platform, newest first.
// Responses are cached by the clamped limit.
func (u *searchUseCase) Home(ctx context.Context, limit int) (*domain.HomeFeed, error) {
	if limit <= 0 || limit > u.cfg.HomeLimit {
		limit = u.cfg.HomeLimit
	}

	key := strconv.Itoa(limit)
	if cached, ok := u.home.Get(key); ok {
		return cached, nil
	}

	tweets, messages, err := u.repo.LatestItems(ctx, limit)
	if err != nil {
		u.logger.Error().Err(err).Msg("home feed query failed")
		return nil, err
	}

	feed := &domain.HomeFeed{Tweets: tweets, Messages: messages}
	u.home.Set(key, feed)
	return feed, nil
}

// Health reports store connectivity and provider configuration
func (u *searchUseCase) Health(ctx context.Context) *domain.HealthStatus {
	status := &domain.HealthStatus{
		Status:            "ok",
		DatabaseConnected: u.repo.Ping(ctx) == nil,
		FeedAPIConfigured: u.feedConfigured,
	}
	if !status.DatabaseConnected {
		status.Status = "degraded"
	}
	return status
}
