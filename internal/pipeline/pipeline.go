package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"phare/internal/digest"
	"phare/internal/domain"
	"phare/internal/hackernews"
	"phare/internal/render"
	"phare/internal/summarizer"
)

type FeedFetcher interface {
	FetchRecentPosts(
		ctx context.Context,
		sources []domain.Source,
		windowDays int,
	) ([]domain.Post, []domain.SourceFailure)
}

type StoryFetcher interface {
	TopStories(ctx context.Context, minScore int, windowDays int) ([]domain.Post, error)
}

type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.Run) (int64, error)
}

type Settings struct {
	OutputPath string
	WindowDays int
	HNMinScore int
}

type Pipeline struct {
	settings   Settings
	sources    []domain.Source
	colors     domain.CategoryColors
	feeds      FeedFetcher
	stories    StoryFetcher
	summarizer summarizer.Summarizer
	history    RunRecorder
	now        func() time.Time
	log        *slog.Logger
}

// New builds a pipeline. summarizer and history are optional.
func New(
	settings Settings,
	sources []domain.Source,
	colors domain.CategoryColors,
	feeds FeedFetcher,
	stories StoryFetcher,
	s summarizer.Summarizer,
	history RunRecorder,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		settings:   settings,
		sources:    sources,
		colors:     colors,
		feeds:      feeds,
		stories:    stories,
		summarizer: s,
		history:    history,
		now:        time.Now,
		log:        log,
	}
}

// Run fetches every source, renders the watchlist and writes it. Source
// failures are reported in the returned run; only a write failure is an
// error.
func (p *Pipeline) Run(ctx context.Context) (domain.Run, error) {
	run := domain.Run{
		StartedAt:  p.now(),
		OutputPath: p.settings.OutputPath,
	}

	feedPosts, failures := p.feeds.FetchRecentPosts(ctx, p.sources, p.settings.WindowDays)
	run.Failures = append(run.Failures, failures...)

	stories, err := p.stories.TopStories(ctx, p.settings.HNMinScore, p.settings.WindowDays)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to fetch Hacker News stories",
			"error", err,
			"minScore", p.settings.HNMinScore,
			"windowDays", p.settings.WindowDays)

		run.Failures = append(run.Failures, domain.SourceFailure{
			Source: hackernews.Author,
			Err:    err,
		})
		stories = nil
	}

	posts := digest.Merge(feedPosts, stories)

	run.FeedPostCount = len(feedPosts)
	run.StoryCount = len(stories)
	run.PostCount = len(posts)

	document := render.Render(posts, p.colors, p.intro(ctx, posts))
	if err = render.WriteFile(p.settings.OutputPath, document); err != nil {
		return run, fmt.Errorf("write output: %w", err)
	}

	run.FinishedAt = p.now()

	p.log.InfoContext(ctx, "Watchlist is generated",
		"outputPath", p.settings.OutputPath,
		"postCount", run.PostCount,
		"feedPostCount", run.FeedPostCount,
		"storyCount", run.StoryCount,
		"failureCount", len(run.Failures),
		"durationSeconds", run.FinishedAt.Sub(run.StartedAt).Seconds())

	p.record(ctx, run)

	return run, nil
}

func (p *Pipeline) intro(ctx context.Context, posts []domain.Post) string {
	fallback := summarizer.FallbackIntro(posts, p.settings.WindowDays)
	if p.summarizer == nil || len(posts) == 0 {
		return fallback
	}

	intro, err := p.summarizer.Summarize(ctx, summarizer.DigestInput(posts, p.settings.WindowDays))
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to summarize digest",
			"error", err,
			"postCount", len(posts),
			"fallback", true)

		return fallback
	}

	return intro
}

func (p *Pipeline) record(ctx context.Context, run domain.Run) {
	if p.history == nil {
		return
	}

	runID, err := p.history.RecordRun(ctx, run)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to record run",
			"error", err,
			"outputPath", run.OutputPath)

		return
	}

	p.log.DebugContext(ctx, "Run is recorded",
		"runID", runID)
}
