package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"phare/internal/config"
	"phare/internal/database"
	"phare/internal/domain"
	"phare/internal/feed"
	"phare/internal/hackernews"
	"phare/internal/pipeline"
	"phare/internal/scheduler"
	"phare/internal/sources"
	"phare/internal/summarizer"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(log).ExecuteContext(ctx); err != nil {
		log.ErrorContext(ctx, "Watchlist run failed",
			"error", err)

		stop()
		os.Exit(1)
	}
}

func newRootCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "phare",
		Short:         "Personal reading watchlist generator",
		Long:          "phare fetches recent posts from a list of blogs plus top Hacker News stories and renders them into a single HTML watchlist.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), log)
		},
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	start := time.Now()

	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env file: %w", err)
		}
	} else {
		log.InfoContext(ctx, ".env file is loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	registry, registryPath, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("load sources (path = %s): %w", registryPath, err)
	}
	if registryPath == "" {
		registryPath = "builtin"
	}
	log.InfoContext(ctx, "Sources are loaded",
		"registry", registryPath,
		"sourceCount", len(registry.Sources))

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	feeds := feed.NewFetcher(httpClient, log,
		feed.WithConcurrency(cfg.FeedConcurrency))

	stories := hackernews.NewClient(httpClient, log,
		hackernews.WithBaseURL(cfg.HNBaseURL),
		hackernews.WithConcurrency(cfg.HNConcurrency),
		hackernews.WithRequestInterval(cfg.HNRequestInterval),
		hackernews.WithUserAgent(feed.UserAgent))

	var history pipeline.RunRecorder
	if dbPath := strings.TrimSpace(cfg.DBPath); dbPath != "" {
		db, dbErr := database.New(ctx, dbPath, log)
		if dbErr != nil {
			return fmt.Errorf("initialize db (path = %s): %w", dbPath, dbErr)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				log.ErrorContext(ctx, "Failed to close db",
					"error", closeErr,
					"dbPath", dbPath)
			}
		}()
		log.InfoContext(ctx, "DB is initialized",
			"dbPath", dbPath)

		logPreviousRun(ctx, db, log)
		history = db
	}

	p := pipeline.New(
		pipeline.Settings{
			OutputPath: cfg.OutputPath,
			WindowDays: cfg.WindowDays,
			HNMinScore: cfg.HNMinScore,
		},
		registry.Sources,
		registry.Colors,
		feeds,
		stories,
		initOpenAISummarizer(ctx, cfg.OpenAIAPIKey, log),
		history,
		log,
	)

	if cfg.Schedule == "" {
		_, err = p.Run(ctx)
		return err
	}

	return runScheduled(ctx, cfg.Schedule, p, start, log)
}

type runLister interface {
	LatestRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

func logPreviousRun(ctx context.Context, runs runLister, log *slog.Logger) {
	latest, err := runs.LatestRuns(ctx, 1)
	if err != nil {
		log.WarnContext(ctx, "Failed to read previous run",
			"error", err)

		return
	}

	if len(latest) == 0 {
		log.InfoContext(ctx, "No previous run is recorded")
		return
	}

	prev := latest[0]
	log.InfoContext(ctx, "Previous run is loaded",
		"runID", prev.ID,
		"finishedAt", prev.FinishedAt.Format(time.RFC3339),
		"postCount", prev.PostCount,
		"failureCount", len(prev.Failures))
}

func runScheduled(
	ctx context.Context,
	spec string,
	p *pipeline.Pipeline,
	start time.Time,
	log *slog.Logger,
) error {
	if err := scheduler.Validate(spec); err != nil {
		return err
	}

	if _, err := p.Run(ctx); err != nil {
		return err
	}

	sched := scheduler.New(ctx, spec, p, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	log.InfoContext(ctx, "Scheduler is started",
		"spec", sched.Spec(),
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	<-ctx.Done()
	log.InfoContext(ctx, "Shutdown signal is received",
		"uptimeSeconds", time.Since(start).Seconds())

	sched.Stop()
	log.InfoContext(ctx, "Scheduler is stopped")

	return nil
}

func initOpenAISummarizer(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Summarizer {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		log.InfoContext(ctx, "OPENAI_API_KEY is missing so fallback intro will be used",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(apiKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback intro will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
