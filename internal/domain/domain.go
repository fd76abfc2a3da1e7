package domain

import "time"

const (
	// ISOLayout is the textual form of Post.Published.
	ISOLayout = "2006-01-02T15:04:05"

	FallbackCategoryColor = "#999"
)

type Source struct {
	Name     string
	URL      string
	Category string
}

type Post struct {
	Author    string
	Title     string
	Link      string
	Published time.Time
	Category  string
}

func (p Post) PublishedISO() string {
	return p.Published.UTC().Format(ISOLayout)
}

type CategoryColors map[string]string

// Color returns FallbackCategoryColor for unknown categories.
func (c CategoryColors) Color(category string) string {
	if color, ok := c[category]; ok && color != "" {
		return color
	}

	return FallbackCategoryColor
}

type SourceFailure struct {
	Source string
	Err    error
}

type Run struct {
	ID            int64
	StartedAt     time.Time
	FinishedAt    time.Time
	OutputPath    string
	FeedPostCount int
	StoryCount    int
	PostCount     int
	Failures      []SourceFailure
}
