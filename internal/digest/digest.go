package digest

import (
	"slices"

	"phare/internal/domain"
)

// Merge concatenates a and b and returns them newest first. Posts published
// at the same instant keep their input order.
func Merge(a, b []domain.Post) []domain.Post {
	merged := make([]domain.Post, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)

	return SortByPublished(merged)
}

// SortByPublished sorts posts newest first in place and returns them.
func SortByPublished(posts []domain.Post) []domain.Post {
	slices.SortStableFunc(posts, func(x, y domain.Post) int {
		return y.Published.Compare(x.Published)
	})

	return posts
}

// Authors returns distinct authors in order of first appearance.
func Authors(posts []domain.Post) []string {
	seen := make(map[string]struct{})
	var authors []string

	for _, post := range posts {
		if _, ok := seen[post.Author]; ok {
			continue
		}

		seen[post.Author] = struct{}{}
		authors = append(authors, post.Author)
	}

	return authors
}
