// Package deps declares the ports the archive use cases depend on.
package deps

import (
	"context"

	"github.com/gotd/td/tg"

	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/twitterapi"
)

// TweetFeed is the cursor-paginated tweet search provider
type TweetFeed interface {
	// Search fetches one result page; an empty cursor starts from the
	// newest results
	Search(ctx context.Context, query, cursor string) (*twitterapi.TweetPage, error)
}

// TelegramFeed is the stateful channel-history provider
type TelegramFeed interface {
	// ChannelInfo resolves a channel handle to its profile
	ChannelInfo(ctx context.Context, handle string) (*entities.Channel, error)
	// HistoryPage returns up to limit messages with IDs strictly
	// greater than offsetID, ordered oldest-first. An empty page means
	// the history is exhausted.
	HistoryPage(ctx context.Context, handle string, offsetID int64, limit int) ([]*tg.Message, error)
}

// ArchiveRepository persists normalized content with idempotent,
// conflict-tolerant batch writes
type ArchiveRepository interface {
	// UpsertTweetBatch writes authors first (identity upsert), then
	// tweets (insert, conflicts ignored). Returns the number of tweets
	// submitted, an upper bound on new rows.
	UpsertTweetBatch(ctx context.Context, authors []*entities.Author, tweets []*entities.Tweet) (int, error)
	// UpsertChannel writes or refreshes a channel profile
	UpsertChannel(ctx context.Context, channel *entities.Channel) error
	// InsertMessageBatch resolves thread roots for the batch and writes
	// it, all inside one transaction
	InsertMessageBatch(ctx context.Context, channelID int64, batch []*entities.Message) (int, error)

	// Watermarks: extreme external IDs already ingested per source
	OldestTweetID(ctx context.Context, username string) (int64, bool, error)
	NewestTweetID(ctx context.Context, username string) (int64, bool, error)
	NewestMessageID(ctx context.Context, channelID int64) (int64, bool, error)
}

// SearchRepository serves the read path
type SearchRepository interface {
	// SearchTweets returns full-text matches expanded to every tweet
	// sharing a matched conversation, newest first
	SearchTweets(ctx context.Context, query string) ([]entities.Tweet, error)
	// SearchMessages returns full-text matches expanded to whole
	// threads, oldest first for chronological reply reading
	SearchMessages(ctx context.Context, query string) ([]entities.Message, error)
	// LatestItems returns the limit most recent items across both
	// platforms
	LatestItems(ctx context.Context, limit int) ([]entities.Tweet, []entities.Message, error)
	// Ping reports store connectivity for health checks
	Ping(ctx context.Context) error
}

// EventProducer publishes archived-content events after successful
// source syncs. Implementations must be safe to call concurrently.
type EventProducer interface {
	PublishArchived(ctx context.Context, source domain.Source, inserted int) error
	Close() error
}
