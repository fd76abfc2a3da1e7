package render

import (
	"fmt"
	"html"
	"os"
	"strings"

	"phare/internal/domain"
)

const (
	dateLength = len("2006-01-02")

	documentHeader = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Phare: Veille personnelle</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; }
        h1 { border-bottom: 2px solid #333; padding-bottom: 10px; }
        .intro { color: #444; font-style: italic; }
        .post { margin: 20px 0; padding: 15px; border-left: 3px solid; background: #f5f5f5; }
        .post a { color: #0066cc; text-decoration: none; font-weight: 500; }
        .post a:hover { text-decoration: underline; }
        .meta { color: #666; font-size: 0.9em; margin-top: 5px; }
        .source { font-weight: 600; color: #333; }
        .category { display: inline-block; padding: 2px 8px; border-radius: 3px; font-size: 0.85em; margin-left: 8px; }
    </style>
</head>
<body>
    <h1>Phare- Posts</h1>
`

	documentFooter = `</body>
</html>`

	postBlock = `    <div class="post" style="border-left-color: %[1]s;">
        <a href="%[2]s" target="_blank">%[3]s</a>
        <div class="meta">
            <span class="source">%[4]s</span>
            <span class="category" style="background-color: %[1]s; color: white;">%[5]s</span>
            • %[6]s
        </div>
    </div>
`

	introBlock = `    <p class="intro">%s</p>
`
)

// Render builds the watchlist document. Posts are rendered in the given
// order; intro is omitted when empty.
func Render(posts []domain.Post, colors domain.CategoryColors, intro string) string {
	var b strings.Builder

	b.WriteString(documentHeader)

	if intro = strings.TrimSpace(intro); intro != "" {
		fmt.Fprintf(&b, introBlock, html.EscapeString(intro))
	}

	for _, post := range posts {
		color := colors.Color(post.Category)

		fmt.Fprintf(&b, postBlock,
			html.EscapeString(color),
			html.EscapeString(post.Link),
			html.EscapeString(post.Title),
			html.EscapeString(post.Author),
			html.EscapeString(post.Category),
			publishedDate(post),
		)
	}

	b.WriteString(documentFooter)

	return b.String()
}

// WriteFile replaces the file at path with document.
func WriteFile(path string, document string) error {
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil { //nolint:gosec // The watchlist is meant to be readable.
		return fmt.Errorf("write watchlist (path = %s): %w", path, err)
	}

	return nil
}

func publishedDate(post domain.Post) string {
	iso := post.PublishedISO()
	if len(iso) < dateLength {
		return iso
	}

	return iso[:dateLength]
}
