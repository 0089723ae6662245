package domain

import (
	"context"

	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
)

// SyncUseCase defines the business logic interface for ingestion
type SyncUseCase interface {
	// Sync runs an incremental cycle over every configured source
	Sync(ctx context.Context, secret string) (*SyncReport, error)

	// Backfill walks one source's history from its oldest archived item
	// backwards (tweets) or from its oldest gap forwards (messages)
	Backfill(ctx context.Context, secret string, source Source) (*SyncReport, error)
}

// SearchResult carries one search response across both platforms
type SearchResult struct {
	Tweets   []entities.Tweet   `json:"tweets"`
	Messages []entities.Message `json:"messages"`
}

// HomeFeed carries the most recent archived items
type HomeFeed struct {
	Tweets   []entities.Tweet   `json:"tweets"`
	Messages []entities.Message `json:"messages"`
}

// HealthStatus reports service readiness
type HealthStatus struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"databaseConnected"`
	FeedAPIConfigured bool   `json:"feedApiConfigured"`
}

// SearchUseCase defines the business logic interface for the read path
type SearchUseCase interface {
	// Search runs full-text search with thread-context expansion
	Search(ctx context.Context, query string) (*SearchResult, error)

	// Home returns the latest archived items, newest first
	Home(ctx context.Context, limit int) (*HomeFeed, error)

	// Health reports store connectivity and provider configuration
	Health(ctx context.Context) *HealthStatus
}
