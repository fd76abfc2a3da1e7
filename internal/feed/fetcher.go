package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"phare/internal/digest"
	"phare/internal/domain"

	"github.com/mmcdole/gofeed"
)

const (
	UserAgent = "phare/1.0 (+https://github.com/phare/phare)"

	defaultConcurrency = 1
)

// SourceResult is the outcome of fetching one source. Err and Posts are
// mutually exclusive.
type SourceResult struct {
	Source domain.Source
	Posts  []domain.Post
	Err    error
}

type Fetcher struct {
	libParser   *gofeed.Parser
	concurrency int
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Fetcher)

// WithConcurrency bounds how many sources are fetched at once.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

func NewFetcher(client *http.Client, log *slog.Logger, opts ...Option) *Fetcher {
	libParser := gofeed.NewParser()
	libParser.Client = client
	libParser.UserAgent = UserAgent

	f := &Fetcher{
		libParser:   libParser,
		concurrency: defaultConcurrency,
		now:         time.Now,
		log:         log,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// FetchRecentPosts returns posts of all sources published within the last
// windowDays days, newest first. Failing sources contribute no posts and are
// reported as failures.
func (f *Fetcher) FetchRecentPosts(
	ctx context.Context,
	sources []domain.Source,
	windowDays int,
) ([]domain.Post, []domain.SourceFailure) {
	var (
		posts    []domain.Post
		failures []domain.SourceFailure
	)

	for _, res := range f.FetchSources(ctx, sources, windowDays) {
		if res.Err != nil {
			f.log.ErrorContext(ctx, "Failed to fetch feed",
				"error", res.Err,
				"source", res.Source.Name,
				"feedURL", res.Source.URL)

			failures = append(failures, domain.SourceFailure{
				Source: res.Source.Name,
				Err:    res.Err,
			})

			continue
		}

		posts = append(posts, res.Posts...)
	}

	return digest.SortByPublished(posts), failures
}

// FetchSources fetches every source and returns one result per source in
// registry order.
func (f *Fetcher) FetchSources(
	ctx context.Context,
	sources []domain.Source,
	windowDays int,
) []SourceResult {
	results := make([]SourceResult, len(sources))
	if len(sources) == 0 {
		return results
	}

	cutoff := Cutoff(f.now(), windowDays)

	var wg sync.WaitGroup
	semCh := make(chan struct{}, min(f.concurrency, len(sources)))

	for i, src := range sources {
		semCh <- struct{}{}

		wg.Go(func() {
			defer func() { <-semCh }()

			posts, err := f.fetchSource(ctx, src, cutoff)
			results[i] = SourceResult{Source: src, Posts: posts, Err: err}
		})
	}

	wg.Wait()

	return results
}

// Cutoff is the instant entries must be strictly newer than.
func Cutoff(now time.Time, windowDays int) time.Time {
	return now.Add(-time.Duration(windowDays) * 24 * time.Hour)
}

func (f *Fetcher) fetchSource(
	ctx context.Context,
	src domain.Source,
	cutoff time.Time,
) ([]domain.Post, error) {
	feedURL := strings.TrimSpace(src.URL)
	if feedURL == "" {
		return nil, errors.New("feed URL is empty")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, err := f.libParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	posts := make([]domain.Post, 0, len(parsed.Items))

	for _, item := range parsed.Items {
		post, ok := f.parseFeedItem(ctx, src, cutoff, item)
		if !ok {
			continue
		}

		posts = append(posts, post)
	}

	return posts, nil
}
