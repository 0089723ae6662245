// Package usecase implements the archive service's business logic.
package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/deps"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/normalize"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/metrics"
)

// syncUseCase implements domain.SyncUseCase
type syncUseCase struct {
	cfg      *config.SyncConfig
	tweets   deps.TweetFeed
	telegram deps.TelegramFeed
	archive  deps.ArchiveRepository
	producer deps.EventProducer
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewSyncUseCase creates a new sync use case
func NewSyncUseCase(
	cfg *config.SyncConfig,
	tweets deps.TweetFeed,
	telegram deps.TelegramFeed,
	archive deps.ArchiveRepository,
	producer deps.EventProducer,
	m *metrics.Metrics,
	logger zerolog.Logger,
) domain.SyncUseCase {
	return &syncUseCase{
		cfg:      cfg,
		tweets:   tweets,
		telegram: telegram,
		archive:  archive,
		producer: producer,
		metrics:  m,
		logger:   logger.With().Str("component", "sync_usecase").Logger(),
	}
}

// Sync runs an incremental cycle over every configured source. Sources
// run concurrently and fail independently: one broken feed never blocks
// the others, and the report carries whatever succeeded alongside the
// joined errors.
func (u *syncUseCase) Sync(ctx context.Context, secret string) (*domain.SyncReport, error) {
	if err := u.authorize(secret); err != nil {
		return nil, err
	}

	start := time.Now()
	report := domain.NewSyncReport()

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	for _, source := range u.cfg.Sources {
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()

			inserted, err := u.syncSource(ctx, src, domain.SyncModeIncremental)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				u.metrics.RecordSyncError(string(src.Platform))
				errs = append(errs, fmt.Errorf("%s/%s: %w", src.Platform, src.Handle, err))
			}
			report.Add(src.Platform, inserted)
		}(source)
	}
	wg.Wait()

	u.metrics.RecordSyncCycle(time.Since(start).Seconds())
	u.logger.Info().
		Int("tweets", report.Inserted[domain.PlatformTwitter]).
		Int("messages", report.Inserted[domain.PlatformTelegram]).
		Int("failed_sources", len(errs)).
		Dur("duration", time.Since(start)).
		Msg("sync cycle finished")

	return &report, errors.Join(errs...)
}

// Backfill walks one source's history in a single cycle. The secret
// check comes before request validation so an unauthenticated caller
// always sees 401, never a validation hint.
func (u *syncUseCase) Backfill(ctx context.Context, secret string, source domain.Source) (*domain.SyncReport, error) {
	if err := u.authorize(secret); err != nil {
		return nil, err
	}
	if !source.Platform.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, source.Platform)
	}
	if source.Handle == "" {
		return nil, domain.ErrMissingHandle
	}

	report := domain.NewSyncReport()
	inserted, err := u.syncSource(ctx, source, domain.SyncModeBackfill)
	report.Add(source.Platform, inserted)
	if err != nil {
		u.metrics.RecordSyncError(string(source.Platform))
		return &report, fmt.Errorf("%s/%s: %w", source.Platform, source.Handle, err)
	}
	return &report, nil
}

// authorize compares the presented secret against the configured one in
// constant time. No secret configured means the endpoint is disabled.
func (u *syncUseCase) authorize(secret string) error {
	if u.cfg.Secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(u.cfg.Secret)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

func (u *syncUseCase) syncSource(ctx context.Context, source domain.Source, mode domain.SyncMode) (int, error) {
	switch source.Platform {
	case domain.PlatformTwitter:
		return u.syncTweets(ctx, source, mode)
	case domain.PlatformTelegram:
		return u.syncMessages(ctx, source, mode)
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, source.Platform)
	}
}

// syncTweets pages through the provider's cursor until exhaustion,
// flushing normalized batches as they fill. The search query pins the
// window to the stored watermarks so repeated cycles converge instead
// of re-reading the whole timeline.
func (u *syncUseCase) syncTweets(ctx context.Context, source domain.Source, mode domain.SyncMode) (int, error) {
	query, err := u.tweetQuery(ctx, source.Handle, mode)
	if err != nil {
		return 0, err
	}

	var (
		tweets  []*entities.Tweet
		authors []*entities.Author
		seen    = make(map[int64]bool)
		total   int
		cursor  string
	)

	flush := func() error {
		if len(tweets) == 0 {
			return nil
		}
		inserted, err := u.archive.UpsertTweetBatch(ctx, authors, tweets)
		if err != nil {
			return err
		}
		total += inserted
		tweets = tweets[:0]
		authors = authors[:0]
		return nil
	}

	for {
		page, err := u.tweets.Search(ctx, query, cursor)
		if err != nil {
			return total, err
		}
		u.metrics.IncFeedPage(string(domain.PlatformTwitter))

		for _, raw := range page.Tweets {
			tweet, author, err := normalize.Tweet(raw)
			if err != nil {
				// a malformed item skips, it must not sink the page
				u.logger.Warn().Err(err).Str("tweet_id", raw.ID).Msg("skipping malformed tweet")
				continue
			}
			tweets = append(tweets, tweet)
			if !seen[author.ID] {
				seen[author.ID] = true
				authors = append(authors, author)
			}
		}

		if len(tweets) >= u.cfg.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}

		if !page.HasNext || len(page.Tweets) == 0 {
			break
		}
		cursor = page.NextCursor
	}

	if err := flush(); err != nil {
		return total, err
	}

	u.logger.Info().
		Str("handle", source.Handle).
		Str("mode", string(mode)).
		Int("inserted", total).
		Msg("tweet sync finished")

	u.publish(ctx, source, total)
	return total, nil
}

// tweetQuery builds the provider search query for the handle, pinned to
// the stored watermark for the requested direction
func (u *syncUseCase) tweetQuery(ctx context.Context, handle string, mode domain.SyncMode) (string, error) {
	query := "from:" + handle

	switch mode {
	case domain.SyncModeIncremental:
		newest, ok, err := u.archive.NewestTweetID(ctx, handle)
		if err != nil {
			return "", err
		}
		if ok {
			query = fmt.Sprintf("%s since_id:%d", query, newest)
		}

	case domain.SyncModeBackfill:
		oldest, ok, err := u.archive.OldestTweetID(ctx, handle)
		if err != nil {
			return "", err
		}
		if ok {
			// max_id is inclusive upstream; the duplicate boundary tweet
			// is absorbed by the conflict-tolerant insert
			query = fmt.Sprintf("%s max_id:%d", query, oldest)
		}
	}

	return query, nil
}

// syncMessages refreshes the channel profile, then walks channel
// history oldest-first above the stored watermark, writing page-sized
// batches. Each batch resolves its own thread roots inside the
// repository transaction.
func (u *syncUseCase) syncMessages(ctx context.Context, source domain.Source, mode domain.SyncMode) (int, error) {
	channel, err := u.telegram.ChannelInfo(ctx, source.Handle)
	if err != nil {
		return 0, err
	}
	if err := u.archive.UpsertChannel(ctx, channel); err != nil {
		return 0, err
	}

	var offsetID int64
	if mode == domain.SyncModeIncremental {
		newest, ok, err := u.archive.NewestMessageID(ctx, channel.ID)
		if err != nil {
			return 0, err
		}
		if ok {
			offsetID = newest
		}
	}

	var total int
	for {
		page, err := u.telegram.HistoryPage(ctx, source.Handle, offsetID, u.cfg.PageLimit)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			break
		}
		u.metrics.IncFeedPage(string(domain.PlatformTelegram))

		batch := make([]*entities.Message, 0, len(page))
		for _, raw := range page {
			batch = append(batch, normalize.Message(raw, channel))
		}

		inserted, err := u.archive.InsertMessageBatch(ctx, channel.ID, batch)
		if err != nil {
			return total, err
		}
		total += inserted

		offsetID = batch[len(batch)-1].MessageID
	}

	u.logger.Info().
		Str("handle", source.Handle).
		Str("mode", string(mode)).
		Int("inserted", total).
		Msg("message sync finished")

	u.publish(ctx, source, total)
	return total, nil
}

// publish emits the archived-content event; delivery is best-effort and
// never fails the sync
func (u *syncUseCase) publish(ctx context.Context, source domain.Source, inserted int) {
	if inserted == 0 {
		return
	}
	if err := u.producer.PublishArchived(ctx, source, inserted); err != nil {
		u.logger.Error().Err(err).
			Str("platform", string(source.Platform)).
			Str("handle", source.Handle).
			Msg("failed to publish archived event")
	}
}
