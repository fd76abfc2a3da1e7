package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"phare/internal/domain"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"
	DiscussionURL  = "https://news.ycombinator.com/item?id=%d"

	Author   = "Hacker News"
	Category = "HN"

	// TopStoriesLimit is how many ranked ids are considered per run.
	TopStoriesLimit = 64

	defaultConcurrency = 1
)

// Story is the subset of the item API the digest uses.
type Story struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	Time  int64  `json:"time"`
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	concurrency int
	userAgent   string
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithConcurrency bounds how many item requests are in flight.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRequestInterval spaces requests at least interval apart. Zero disables
// pacing.
func WithRequestInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClient(httpClient *http.Client, log *slog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		concurrency: defaultConcurrency,
		now:         time.Now,
		log:         log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// TopStories returns top stories scoring at least minScore and created
// within the last windowDays days, in ranking order. Any request failure
// fails the whole call.
func (c *Client) TopStories(
	ctx context.Context,
	minScore int,
	windowDays int,
) ([]domain.Post, error) {
	cutoff := c.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	ids, err := c.topStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch top story IDs: %w", err)
	}

	if len(ids) > TopStoriesLimit {
		ids = ids[:TopStoriesLimit]
	}

	stories, err := c.stories(ctx, ids)
	if err != nil {
		return nil, err
	}

	var posts []domain.Post

	for i, story := range stories {
		if story == nil {
			c.log.DebugContext(ctx, "Skipping missing story",
				"storyID", ids[i])

			continue
		}

		post, ok := storyPost(story, minScore, cutoff)
		if !ok {
			continue
		}

		posts = append(posts, post)
	}

	c.log.InfoContext(ctx, "Hacker News stories are fetched",
		"candidateCount", len(ids),
		"storyCount", len(posts),
		"minScore", minScore,
		"windowDays", windowDays)

	return posts, nil
}

func (c *Client) stories(ctx context.Context, ids []int64) ([]*Story, error) {
	stories := make([]*Story, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			story, err := c.story(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch story (ID = %d): %w", id, err)
			}

			stories[i] = story

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stories, nil
}

func (c *Client) topStoryIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}

	return ids, nil
}

// story returns nil for deleted items, which the API serves as null.
func (c *Client) story(ctx context.Context, id int64) (*Story, error) {
	var story *Story
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &story); err != nil {
		return nil, err
	}

	if story != nil && story.ID == 0 {
		story.ID = id
	}

	return story, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", rawURL)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status (URL = %s): %s", rawURL, resp.Status)
	}

	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response (URL = %s): %w", rawURL, err)
	}

	return nil
}

func storyPost(story *Story, minScore int, cutoff time.Time) (domain.Post, bool) {
	if story.Score < minScore {
		return domain.Post{}, false
	}

	created := time.Unix(story.Time, 0).UTC()
	if !created.After(cutoff) {
		return domain.Post{}, false
	}

	title := strings.TrimSpace(story.Title)
	if title == "" {
		return domain.Post{}, false
	}

	link := strings.TrimSpace(story.URL)
	if link == "" {
		link = fmt.Sprintf(DiscussionURL, story.ID)
	}

	return domain.Post{
		Author:    Author,
		Title:     fmt.Sprintf("%s (%d pts)", title, story.Score),
		Link:      link,
		Published: created,
		Category:  Category,
	}, true
}
