package feed

import (
	"context"
	"strings"
	"time"

	"phare/internal/domain"

	"github.com/mmcdole/gofeed"
	"mvdan.cc/xurls/v2"
)

var strictURLRe = xurls.Strict()

func (f *Fetcher) parseFeedItem(
	ctx context.Context,
	src domain.Source,
	cutoff time.Time,
	item *gofeed.Item,
) (domain.Post, bool) {
	if item == nil {
		return domain.Post{}, false
	}

	published, ok := publishedTime(item)
	if !ok {
		f.log.DebugContext(ctx, "Skipping feed item without date",
			"source", src.Name,
			"itemTitle", item.Title)

		return domain.Post{}, false
	}

	if !published.After(cutoff) {
		return domain.Post{}, false
	}

	title := strings.TrimSpace(item.Title)
	link := itemLink(item)

	if title == "" || link == "" {
		f.log.WarnContext(ctx, "Skipping feed item with empty title or URL",
			"source", src.Name,
			"itemTitle", title,
			"itemURL", link)

		return domain.Post{}, false
	}

	return domain.Post{
		Author:    src.Name,
		Title:     title,
		Link:      link,
		Published: published.UTC(),
		Category:  src.Category,
	}, true
}

// publishedTime prefers the published date over the updated date.
func publishedTime(item *gofeed.Item) (time.Time, bool) {
	switch {
	case item.PublishedParsed != nil && !item.PublishedParsed.IsZero():
		return *item.PublishedParsed, true
	case item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero():
		return *item.UpdatedParsed, true
	default:
		return time.Time{}, false
	}
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}

	for _, l := range item.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}

	// Atom ids and RSS guids are often permalinks.
	return strictURLRe.FindString(item.GUID)
}
