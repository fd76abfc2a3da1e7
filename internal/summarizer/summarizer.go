package summarizer

import (
	"context"
	"fmt"
	"strings"

	"phare/internal/digest"
	"phare/internal/domain"
)

const maxDigestInputPosts = 40

// Input describes the payload for a summary request.
type Input struct {
	// Text lists the digest entries, one per line.
	Text string
	// WindowDays is the period the digest covers.
	WindowDays int
}

// Summarizer writes a short introduction for a digest.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}

// DigestInput builds the summary request for posts, newest first.
func DigestInput(posts []domain.Post, windowDays int) Input {
	var b strings.Builder

	for i, post := range posts {
		if i == maxDigestInputPosts {
			break
		}

		b.WriteString(post.Author)
		b.WriteString(": ")
		b.WriteString(post.Title)
		b.WriteString("\n")
	}

	return Input{Text: strings.TrimSpace(b.String()), WindowDays: windowDays}
}

// FallbackIntro is used when no summarizer is configured or it fails.
func FallbackIntro(posts []domain.Post, windowDays int) string {
	if len(posts) == 0 {
		return ""
	}

	return fmt.Sprintf("%d posts from %d sources over the last %d days.",
		len(posts), len(digest.Authors(posts)), windowDays)
}
