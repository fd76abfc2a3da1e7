package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"phare/internal/domain"
)

// RecordRun stores run and its failures in one transaction and returns the
// run ID.
func (d *Database) RecordRun(ctx context.Context, run domain.Run) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "Failed to roll back transaction",
				"error", rollbackErr,
				"operation", "RecordRun")
		}
	}()

	query := `insert into runs
	(started_at, finished_at, output_path, feed_post_count, story_count, post_count)
	values (?, ?, ?, ?, ?, ?)`

	res, err := tx.ExecContext(ctx, query,
		run.StartedAt.UTC().UnixMilli(),
		run.FinishedAt.UTC().UnixMilli(),
		strings.TrimSpace(run.OutputPath),
		run.FeedPostCount,
		run.StoryCount,
		run.PostCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get run ID: %w", err)
	}

	for _, failure := range run.Failures {
		msg := ""
		if failure.Err != nil {
			msg = failure.Err.Error()
		}

		if _, err = tx.ExecContext(ctx,
			"insert into run_failures (run_id, source, error) values (?, ?, ?)",
			runID, failure.Source, msg,
		); err != nil {
			return 0, fmt.Errorf("insert run failure (source = %s): %w", failure.Source, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return runID, nil
}

// LatestRuns returns up to limit runs, newest first.
func (d *Database) LatestRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `select id, started_at, finished_at, output_path, feed_post_count, story_count, post_count
	from runs
	order by id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"limit", limit,
				"operation", "LatestRuns")
		}
	}()

	var runs []domain.Run
	for rows.Next() {
		var (
			r                     domain.Run
			startedAt, finishedAt int64
		)

		if err = rows.Scan(
			&r.ID,
			&startedAt,
			&finishedAt,
			&r.OutputPath,
			&r.FeedPostCount,
			&r.StoryCount,
			&r.PostCount,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		r.StartedAt = time.UnixMilli(startedAt).UTC()
		r.FinishedAt = time.UnixMilli(finishedAt).UTC()

		runs = append(runs, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	for i := range runs {
		failures, failuresErr := d.runFailures(ctx, runs[i].ID)
		if failuresErr != nil {
			return nil, fmt.Errorf("get run failures (run ID = %d): %w", runs[i].ID, failuresErr)
		}

		runs[i].Failures = failures
	}

	return runs, nil
}

func (d *Database) runFailures(ctx context.Context, runID int64) ([]domain.SourceFailure, error) {
	query := "select source, error from run_failures where run_id = ? order by id"

	rows, err := d.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"runID", runID,
				"operation", "runFailures")
		}
	}()

	var failures []domain.SourceFailure
	for rows.Next() {
		var source, msg string
		if err = rows.Scan(&source, &msg); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		failures = append(failures, domain.SourceFailure{
			Source: source,
			Err:    errors.New(msg),
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return failures, nil
}
