package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"phare/internal/database"
	"phare/internal/domain"
)

func TestRootCmdRejectsArguments(t *testing.T) {
	cmd := newRootCmd(slog.Default())
	cmd.SetArgs([]string{"extra"})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected error for positional arguments")
	}
}

func TestRunWritesWatchlistDespiteSourceFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/topstories.json" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	t.Chdir(dir)

	registry := "sources:\n  - name: Missing\n    url: " + server.URL + "/missing.xml\n    category: Dev\n"
	if err := os.WriteFile(filepath.Join(dir, "sources.yaml"), []byte(registry), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	output := filepath.Join(dir, "out.html")
	t.Setenv("OUTPUT_PATH", output)
	t.Setenv("SOURCES_FILE", filepath.Join(dir, "sources.yaml"))
	t.Setenv("HN_BASE_URL", server.URL)
	t.Setenv("DB_PATH", filepath.Join(dir, "phare.sqlite"))
	t.Setenv("SCHEDULE", "")
	t.Setenv("OPENAI_API_KEY", "")

	if err := run(context.Background(), slog.Default()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	document, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	if !strings.HasSuffix(string(document), "</html>") || strings.Contains(string(document), `class="post"`) {
		t.Fatalf("expected empty watchlist, got %s", document)
	}

	var logs bytes.Buffer
	if err := run(context.Background(), slog.New(slog.NewJSONHandler(&logs, nil))); err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}

	if !strings.Contains(logs.String(), `"msg":"Previous run is loaded"`) ||
		!strings.Contains(logs.String(), `"failureCount":1`) {
		t.Fatalf("expected previous run to be logged, got %s", logs.String())
	}

	db, err := database.New(context.Background(), filepath.Join(dir, "phare.sqlite"), slog.Default())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	runs, err := db.LatestRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("latest runs: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 recorded runs, got %d", len(runs))
	}
}

type fakeRuns struct {
	runs []domain.Run
	err  error
}

func (f fakeRuns) LatestRuns(context.Context, int) ([]domain.Run, error) {
	return f.runs, f.err
}

func TestLogPreviousRun(t *testing.T) {
	finished := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		runs fakeRuns
		want string
	}{
		{"no history", fakeRuns{}, `"msg":"No previous run is recorded"`},
		{"read error", fakeRuns{err: errors.New("disk I/O error")}, `"msg":"Failed to read previous run"`},
		{
			"previous run",
			fakeRuns{runs: []domain.Run{{
				ID:         7,
				FinishedAt: finished,
				PostCount:  12,
				Failures:   []domain.SourceFailure{{Source: "Broken", Err: errors.New("404")}},
			}}},
			`"runID":7,"finishedAt":"2024-01-08T12:00:00Z","postCount":12,"failureCount":1`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var logs bytes.Buffer
			logPreviousRun(context.Background(), test.runs, slog.New(slog.NewJSONHandler(&logs, nil)))

			if !strings.Contains(logs.String(), test.want) {
				t.Fatalf("expected log to contain %s, got %s", test.want, logs.String())
			}
		})
	}
}
