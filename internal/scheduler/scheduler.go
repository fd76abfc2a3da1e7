package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"phare/internal/domain"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	runTimeout            = 15 * time.Minute
)

type Runner interface {
	Run(ctx context.Context) (domain.Run, error)
}

type Scheduler struct {
	ctx    context.Context
	cron   *cron.Cron
	spec   string
	runner Runner
	log    *slog.Logger
}

func New(ctx context.Context, spec string, runner Runner, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:    ctx,
		cron:   c,
		spec:   strings.TrimSpace(spec),
		runner: runner,
		log:    log,
	}
}

// Validate reports whether spec is a standard five-field cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(strings.TrimSpace(spec)); err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	return nil
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) Spec() string {
	return s.spec
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	run, err := s.runner.Run(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to run scheduled watchlist",
			"error", err,
			"spec", s.spec,
			"outputPath", run.OutputPath)

		return
	}

	s.log.InfoContext(ctx, "Scheduled watchlist is generated",
		"spec", s.spec,
		"postCount", run.PostCount,
		"failureCount", len(run.Failures))
}
