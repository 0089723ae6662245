// Package postgres implements the archive store on PostgreSQL via gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/thread"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/metrics"
)

// insertChunk bounds rows per INSERT so a large backfill page never
// exceeds the driver's parameter limit
const insertChunk = 200

// archiveRepository implements deps.ArchiveRepository
type archiveRepository struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *gorm.DB, m *metrics.Metrics, logger zerolog.Logger) deps.ArchiveRepository {
	return &archiveRepository{
		db:      db,
		metrics: m,
		logger:  logger.With().Str("component", "archive_repository").Logger(),
	}
}

// UpsertTweetBatch writes authors then tweets in one transaction.
// Authors are identity rows: conflicts refresh the mutable profile
// fields. Tweets are immutable: conflicts are ignored, which makes
// overlapping pagination windows idempotent.
func (r *archiveRepository) UpsertTweetBatch(ctx context.Context, authors []*entities.Author, tweets []*entities.Tweet) (int, error) {
	if len(tweets) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(authors) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"username", "display_name", "avatar_url",
					"follower_count", "following_count", "bio",
				}),
			}).CreateInBatches(authors, insertChunk).Error; err != nil {
				return fmt.Errorf("upsert authors: %w", err)
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).CreateInBatches(tweets, insertChunk).Error; err != nil {
			return fmt.Errorf("insert tweets: %w", err)
		}

		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Int("tweets", len(tweets)).Msg("tweet batch write failed")
		return 0, fmt.Errorf("%w: %v", domain.ErrBatchWrite, err)
	}

	r.metrics.IncItemsArchived(string(domain.PlatformTwitter), len(tweets))
	return len(tweets), nil
}

// UpsertChannel writes or refreshes a channel profile
func (r *archiveRepository) UpsertChannel(ctx context.Context, channel *entities.Channel) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "about", "channel_username", "admin_usernames",
		}),
	}).Create(channel)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", domain.ErrBatchWrite, result.Error)
	}
	return nil
}

// InsertMessageBatch resolves thread roots for the batch and writes it,
// all inside one transaction so a failed write never leaves a thread
// half-assigned. Messages whose reply chains exceed the resolver depth
// cap degrade to singleton roots and are logged.
func (r *archiveRepository) InsertMessageBatch(ctx context.Context, channelID int64, batch []*entities.Message) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		persisted, err := r.lookupParents(tx, channelID, batch)
		if err != nil {
			return err
		}

		exceeded := thread.Resolve(batch, persisted)
		if len(exceeded) > 0 {
			r.logger.Warn().
				Int64("channel_id", channelID).
				Strs("message_ids", exceeded).
				Msg("reply chains exceeded depth cap, degraded to singleton roots")
			r.metrics.IncThreadDepthExceeded(len(exceeded))
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).CreateInBatches(batch, insertChunk).Error; err != nil {
			return fmt.Errorf("insert messages: %w", err)
		}

		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("channel_id", channelID).Int("messages", len(batch)).Msg("message batch write failed")
		return 0, fmt.Errorf("%w: %v", domain.ErrBatchWrite, err)
	}

	r.metrics.IncItemsArchived(string(domain.PlatformTelegram), len(batch))
	return len(batch), nil
}

// lookupParents fetches already-persisted rows for every reply target
// the batch references but does not itself contain
func (r *archiveRepository) lookupParents(tx *gorm.DB, channelID int64, batch []*entities.Message) (map[int64]thread.ParentRef, error) {
	inBatch := make(map[int64]bool, len(batch))
	for _, msg := range batch {
		inBatch[msg.MessageID] = true
	}

	var targets []int64
	seen := make(map[int64]bool)
	for _, msg := range batch {
		if msg.ReplyToMessageID == nil {
			continue
		}
		id := *msg.ReplyToMessageID
		if inBatch[id] || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, id)
	}

	persisted := make(map[int64]thread.ParentRef, len(targets))
	if len(targets) == 0 {
		return persisted, nil
	}

	var rows []entities.Message
	err := tx.
		Select("id", "message_id", "thread_id").
		Where("channel_id = ? AND message_id IN ?", channelID, targets).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lookup parent messages: %w", err)
	}

	for _, row := range rows {
		persisted[row.MessageID] = thread.ParentRef{
			ID:       row.ID,
			ThreadID: row.ThreadID,
		}
	}
	return persisted, nil
}

// OldestTweetID returns the lowest archived tweet ID for the user, used
// as the backfill max_id watermark
func (r *archiveRepository) OldestTweetID(ctx context.Context, username string) (int64, bool, error) {
	return r.tweetWatermark(ctx, username, "id ASC")
}

// NewestTweetID returns the highest archived tweet ID for the user,
// used as the incremental since_id watermark
func (r *archiveRepository) NewestTweetID(ctx context.Context, username string) (int64, bool, error) {
	return r.tweetWatermark(ctx, username, "id DESC")
}

func (r *archiveRepository) tweetWatermark(ctx context.Context, username string, order string) (int64, bool, error) {
	var tweet entities.Tweet
	err := r.db.WithContext(ctx).
		Joins("JOIN authors ON authors.id = tweets.author_id").
		Where("authors.username = ?", username).
		Order("tweets." + order).
		Select("tweets.id").
		First(&tweet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("tweet watermark query: %w", err)
	}
	return tweet.ID, true, nil
}

// NewestMessageID returns the highest archived message ID for the
// channel, the floor for the next history fetch
func (r *archiveRepository) NewestMessageID(ctx context.Context, channelID int64) (int64, bool, error) {
	var msg entities.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("message_id DESC").
		Select("message_id").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("message watermark query: %w", err)
	}
	return msg.MessageID, true, nil
}
