package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	OutputPath        string        `env:"OUTPUT_PATH"         envDefault:"watchlist.html"`
	WindowDays        int           `env:"WINDOW_DAYS"         envDefault:"7"`
	HNMinScore        int           `env:"HN_MIN_SCORE"        envDefault:"400"`
	HNBaseURL         string        `env:"HN_BASE_URL"         envDefault:"https://hacker-news.firebaseio.com/v0"`
	HNConcurrency     int           `env:"HN_CONCURRENCY"      envDefault:"1"`
	HNRequestInterval time.Duration `env:"HN_REQUEST_INTERVAL" envDefault:"0s"`
	FeedConcurrency   int           `env:"FEED_CONCURRENCY"    envDefault:"1"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT"        envDefault:"30s"`
	SourcesFile       string        `env:"SOURCES_FILE"`
	DBPath            string        `env:"DB_PATH"`
	Schedule          string        `env:"SCHEDULE"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.OutputPath == "" {
		errs = append(errs, errors.New("OUTPUT_PATH is empty"))
	}
	if c.WindowDays <= 0 {
		errs = append(errs, fmt.Errorf("WINDOW_DAYS must be positive (got %d)", c.WindowDays))
	}
	if c.HNMinScore < 0 {
		errs = append(errs, fmt.Errorf("HN_MIN_SCORE must not be negative (got %d)", c.HNMinScore))
	}
	if c.HNBaseURL == "" {
		errs = append(errs, errors.New("HN_BASE_URL is empty"))
	}
	if c.HNConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("HN_CONCURRENCY must be positive (got %d)", c.HNConcurrency))
	}
	if c.HNRequestInterval < 0 {
		errs = append(errs, fmt.Errorf("HN_REQUEST_INTERVAL must not be negative (got %s)", c.HNRequestInterval))
	}
	if c.FeedConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("FEED_CONCURRENCY must be positive (got %d)", c.FeedConcurrency))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must not be negative (got %s)", c.HTTPTimeout))
	}

	return errors.Join(errs...)
}
