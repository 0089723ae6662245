package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/0xpolarzero/nightwatch/config"
	"github.com/0xpolarzero/nightwatch/internal/domain"
)

const searchPath = "/twitter/tweet/advanced_search"

// TweetPage is one fetched page plus the cursor to resume from
type TweetPage struct {
	Tweets     []Tweet
	NextCursor string
	HasNext    bool
}

// Client talks to the tweet search provider. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new tweet feed client
func NewClient(cfg *config.TwitterConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		// provider allows a handful of requests per second per key
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:  logger.With().Str("component", "twitterapi_client").Logger(),
	}
}

// Search fetches one page of the cursor-paginated advanced search
// endpoint. An empty cursor starts from the newest results. Non-2xx
// responses abort with domain.ErrFeedUnavailable; the caller does not
// retry, the next scheduled sync cycle does.
func (c *Client) Search(ctx context.Context, query, cursor string) (*TweetPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	params := url.Values{}
	params.Set("queryType", "Latest")
	params.Set("query", query)
	params.Set("cursor", cursor)

	endpoint := c.baseURL + searchPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("query", query).
			Msg("tweet search returned non-2xx status")
		return nil, fmt.Errorf("%w: %s", domain.ErrFeedUnavailable, resp.Status)
	}

	var page SearchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	c.logger.Debug().
		Str("query", query).
		Int("tweets", len(page.Tweets)).
		Bool("has_next", page.HasNextPage).
		Msg("fetched tweet search page")

	next := ""
	if page.HasNextPage {
		next = page.NextCursor
	}

	return &TweetPage{
		Tweets:     page.Tweets,
		NextCursor: next,
		HasNext:    page.HasNextPage,
	}, nil
}
