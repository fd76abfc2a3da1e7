package summarizer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"phare/internal/domain"
	"phare/internal/summarizer"

	"github.com/openai/openai-go/v3/option"
)

func TestDigestInput(t *testing.T) {
	posts := []domain.Post{
		{Author: "Julia Evans", Title: "Some strace tips"},
		{Author: "Hacker News", Title: "A story (512 pts)"},
	}

	input := summarizer.DigestInput(posts, 7)

	want := "Julia Evans: Some strace tips\nHacker News: A story (512 pts)"
	if input.Text != want {
		t.Fatalf("got %q want %q", input.Text, want)
	}
	if input.WindowDays != 7 {
		t.Errorf("unexpected window: %d", input.WindowDays)
	}
}

func TestDigestInputIsCapped(t *testing.T) {
	posts := make([]domain.Post, 100)
	for i := range posts {
		posts[i] = domain.Post{Author: "A", Title: fmt.Sprintf("T%d", i)}
	}

	if got := strings.Count(summarizer.DigestInput(posts, 7).Text, "\n") + 1; got != 40 {
		t.Fatalf("expected 40 lines, got %d", got)
	}
}

func TestFallbackIntro(t *testing.T) {
	if got := summarizer.FallbackIntro(nil, 7); got != "" {
		t.Errorf("expected empty intro for no posts, got %q", got)
	}

	posts := []domain.Post{{Author: "A"}, {Author: "B"}, {Author: "A"}}
	if got, want := summarizer.FallbackIntro(posts, 7), "3 posts from 2 sources over the last 7 days."; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestNewOpenAISummarizerRequiresKey(t *testing.T) {
	if _, err := summarizer.NewOpenAISummarizer("  "); err == nil {
		t.Fatalf("expected error for empty API key")
	}
}

type fakeResponses struct {
	mu              sync.Mutex
	maxOutputTokens []int64
	incompleteFirst bool
}

func (f *fakeResponses) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxOutputTokens int64 `json:"max_output_tokens"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.maxOutputTokens = append(f.maxOutputTokens, body.MaxOutputTokens)
	calls := len(f.maxOutputTokens)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if f.incompleteFirst && calls == 1 {
		_, _ = w.Write([]byte(`{"id":"resp_1","object":"response","status":"incomplete",` +
			`"incomplete_details":{"reason":"max_output_tokens"},"output":[]}`))
		return
	}

	_, _ = w.Write([]byte(`{"id":"resp_2","object":"response","status":"completed","output":[` +
		`{"type":"message","id":"msg_1","role":"assistant","status":"completed","content":[` +
		`{"type":"output_text","text":"  Debugging tools and\nLLM evaluation dominate. ","annotations":[]}]}]}`))
}

func newOpenAISummarizer(t *testing.T, api http.Handler) *summarizer.OpenAISummarizer {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	s, err := summarizer.NewOpenAISummarizer("test-key",
		option.WithBaseURL(server.URL+"/"),
		option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return s
}

func TestOpenAISummarizerSummarize(t *testing.T) {
	api := &fakeResponses{}
	s := newOpenAISummarizer(t, api)

	got, err := s.Summarize(context.Background(), summarizer.Input{Text: "A: T", WindowDays: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := "Debugging tools and LLM evaluation dominate."; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestOpenAISummarizerGrowsTokenBudget(t *testing.T) {
	api := &fakeResponses{incompleteFirst: true}
	s := newOpenAISummarizer(t, api)

	if _, err := s.Summarize(context.Background(), summarizer.Input{Text: "A: T"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()

	if len(api.maxOutputTokens) != 2 || api.maxOutputTokens[0] != 512 || api.maxOutputTokens[1] != 1024 {
		t.Fatalf("unexpected token budgets: %v", api.maxOutputTokens)
	}
}

func TestOpenAISummarizerRejectsEmptyInput(t *testing.T) {
	api := &fakeResponses{}
	s := newOpenAISummarizer(t, api)

	if _, err := s.Summarize(context.Background(), summarizer.Input{Text: " "}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestOpenAISummarizerPropagatesAPIErrors(t *testing.T) {
	s := newOpenAISummarizer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))

	if _, err := s.Summarize(context.Background(), summarizer.Input{Text: "A: T"}); err == nil {
		t.Fatalf("expected API error")
	}
}
