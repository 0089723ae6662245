package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
)

const tweetMatch = "to_tsvector('english', text) @@ websearch_to_tsquery('english', ?)"
const messageMatch = "to_tsvector('english', text) @@ websearch_to_tsquery('english', ?)"

// searchRepository implements deps.SearchRepository
type searchRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(db *gorm.DB, logger zerolog.Logger) deps.SearchRepository {
	return &searchRepository{
		db:     db,
		logger: logger.With().Str("component", "search_repository").Logger(),
	}
}

// SearchTweets runs full-text matching, then widens the result to every
// tweet sharing a conversation with a match so replies are always read
// in context. Newest first.
func (s *searchRepository) SearchTweets(ctx context.Context, query string) ([]entities.Tweet, error) {
	var matched []entities.Tweet
	err := s.db.WithContext(ctx).
		Select("id", "conversation_id").
		Where(tweetMatch, query).
		Find(&matched).Error
	if err != nil {
		return nil, fmt.Errorf("tweet text search: %w", err)
	}
	if len(matched) == 0 {
		return []entities.Tweet{}, nil
	}

	ids := make([]int64, 0, len(matched))
	var conversations []int64
	seen := make(map[int64]bool)
	for _, t := range matched {
		ids = append(ids, t.ID)
		if t.ConversationID != nil && !seen[*t.ConversationID] {
			seen[*t.ConversationID] = true
			conversations = append(conversations, *t.ConversationID)
		}
	}

	q := s.db.WithContext(ctx).Preload("Author")
	if len(conversations) > 0 {
		q = q.Where("id IN ? OR conversation_id IN ?", ids, conversations)
	} else {
		q = q.Where("id IN ?", ids)
	}

	var tweets []entities.Tweet
	if err := q.Order("created_at DESC").Find(&tweets).Error; err != nil {
		return nil, fmt.Errorf("tweet context expansion: %w", err)
	}
	return tweets, nil
}

// SearchMessages runs full-text matching, then widens the result to the
// whole thread of every match. Oldest first so a thread reads top-down.
func (s *searchRepository) SearchMessages(ctx context.Context, query string) ([]entities.Message, error) {
	var threadIDs []string
	err := s.db.WithContext(ctx).
		Model(&entities.Message{}).
		Distinct("thread_id").
		Where(messageMatch, query).
		Pluck("thread_id", &threadIDs).Error
	if err != nil {
		return nil, fmt.Errorf("message text search: %w", err)
	}
	if len(threadIDs) == 0 {
		return []entities.Message{}, nil
	}

	var messages []entities.Message
	err = s.db.WithContext(ctx).
		Preload("Channel").
		Where("thread_id IN ?", threadIDs).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("thread expansion: %w", err)
	}
	return messages, nil
}

// LatestItems returns the limit most recent tweets and messages. The
// caller interleaves them into a single feed.
func (s *searchRepository) LatestItems(ctx context.Context, limit int) ([]entities.Tweet, []entities.Message, error) {
	var tweets []entities.Tweet
	err := s.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Find(&tweets).Error
	if err != nil {
		return nil, nil, fmt.Errorf("latest tweets: %w", err)
	}

	var messages []entities.Message
	err = s.db.WithContext(ctx).
		Preload("Channel").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, nil, fmt.Errorf("latest messages: %w", err)
	}

	return tweets, messages, nil
}

// Ping reports store connectivity
func (s *searchRepository) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
