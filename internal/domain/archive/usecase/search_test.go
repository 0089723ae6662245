package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain"
	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/metrics"
)

// mockSearchRepo is a mock implementation of deps.SearchRepository
type mockSearchRepo struct {
	searchTweetsFunc   func(ctx context.Context, query string) ([]entities.Tweet, error)
	searchMessagesFunc func(ctx context.Context, query string) ([]entities.Message, error)
	latestItemsFunc    func(ctx context.Context, limit int) ([]entities.Tweet, []entities.Message, error)
	pingErr            error

	tweetCalls   int
	messageCalls int
	latestLimits []int
}

func (m *mockSearchRepo) SearchTweets(ctx context.Context, query string) ([]entities.Tweet, error) {
	m.tweetCalls++
	if m.searchTweetsFunc != nil {
		return m.searchTweetsFunc(ctx, query)
	}
	return []entities.Tweet{}, nil
}

func (m *mockSearchRepo) SearchMessages(ctx context.Context, query string) ([]entities.Message, error) {
	m.messageCalls++
	if m.searchMessagesFunc != nil {
		return m.searchMessagesFunc(ctx, query)
	}
	return []entities.Message{}, nil
}

func (m *mockSearchRepo) LatestItems(ctx context.Context, limit int) ([]entities.Tweet, []entities.Message, error) {
	m.latestLimits = append(m.latestLimits, limit)
	if m.latestItemsFunc != nil {
		return m.latestItemsFunc(ctx, limit)
	}
	return []entities.Tweet{}, []entities.Message{}, nil
}

func (m *mockSearchRepo) Ping(ctx context.Context) error {
	return m.pingErr
}

func newSearchUC(repo *mockSearchRepo) domain.SearchUseCase {
	return NewSearchUseCase(
		&config.SearchConfig{CacheTTL: time.Hour, HomeLimit: 50},
		&config.TwitterConfig{APIKey: "key"},
		repo,
		metrics.GetDefaultMetrics(),
		zerolog.Nop(),
	)
}

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	uc := newSearchUC(&mockSearchRepo{})

	_, err := uc.Search(context.Background(), "")
	if !errors.Is(err, domain.ErrMissingQuery) {
		t.Fatalf("expected ErrMissingQuery, got %v", err)
	}
}

func TestSearch_QueriesBothPlatforms(t *testing.T) {
	repo := &mockSearchRepo{
		searchTweetsFunc: func(ctx context.Context, query string) ([]entities.Tweet, error) {
			return []entities.Tweet{{ID: 1, Text: "wallet drained"}}, nil
		},
		searchMessagesFunc: func(ctx context.Context, query string) ([]entities.Message, error) {
			return []entities.Message{{ID: "7-1", Text: "wallet found"}}, nil
		},
	}
	uc := newSearchUC(repo)

	result, err := uc.Search(context.Background(), "wallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Tweets) != 1 || len(result.Messages) != 1 {
		t.Errorf("expected results from both platforms, got %d tweets %d messages",
			len(result.Tweets), len(result.Messages))
	}
}

func TestSearch_CachesByQuery(t *testing.T) {
	repo := &mockSearchRepo{}
	uc := newSearchUC(repo)

	for i := 0; i < 3; i++ {
		if _, err := uc.Search(context.Background(), "wallet"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if repo.tweetCalls != 1 || repo.messageCalls != 1 {
		t.Errorf("expected one store read per query, got %d/%d", repo.tweetCalls, repo.messageCalls)
	}

	// different query misses the cache
	if _, err := uc.Search(context.Background(), "exchange"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.tweetCalls != 2 {
		t.Errorf("expected a fresh read for a new query, got %d calls", repo.tweetCalls)
	}
}

func TestSearch_FailureIsNotCached(t *testing.T) {
	fail := true
	repo := &mockSearchRepo{
		searchTweetsFunc: func(ctx context.Context, query string) ([]entities.Tweet, error) {
			if fail {
				return nil, errors.New("store down")
			}
			return []entities.Tweet{}, nil
		},
	}
	uc := newSearchUC(repo)

	if _, err := uc.Search(context.Background(), "wallet"); err == nil {
		t.Fatal("expected error")
	}

	fail = false
	if _, err := uc.Search(context.Background(), "wallet"); err != nil {
		t.Fatalf("expected recovery after store came back, got %v", err)
	}
}

func TestHome_ClampsLimitAndCachesByIt(t *testing.T) {
	repo := &mockSearchRepo{}
	uc := newSearchUC(repo)

	// 0, -5 and 1000 all clamp to the default of 50 and share one
	// cached entry; 10 is a distinct key
	for _, requested := range []int{0, -5, 1000, 10} {
		if _, err := uc.Home(context.Background(), requested); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []int{50, 10}
	if len(repo.latestLimits) != len(want) {
		t.Fatalf("expected %d store reads, got %v", len(want), repo.latestLimits)
	}
	for i := range want {
		if repo.latestLimits[i] != want[i] {
			t.Errorf("read %d: expected limit %d, got %d", i, want[i], repo.latestLimits[i])
		}
	}
}

func TestHealth_ReportsStoreConnectivity(t *testing.T) {
	uc := newSearchUC(&mockSearchRepo{})
	status := uc.Health(context.Background())
	if status.Status != "ok" || !status.DatabaseConnected || !status.FeedAPIConfigured {
		t.Errorf("unexpected healthy status %+v", status)
	}

	uc = newSearchUC(&mockSearchRepo{pingErr: errors.New("conn refused")})
	status = uc.Health(context.Background())
	if status.Status != "degraded" || status.DatabaseConnected {
		t.Errorf("unexpected degraded status %+v", status)
	}
}
