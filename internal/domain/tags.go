package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

var tagFolder = cases.Fold()

// TagKey returns the comparison key for a tag. Tags compare
// case-insensitively; callers keep the original spelling for display.
func TagKey(tag string) string {
	trimmed := strings.Join(strings.Fields(tag), " ")
	if trimmed == "" {
		return ""
	}
	return tagFolder.String(trimmed)
}

// NormalizeTags collapses duplicates (by TagKey) and drops blanks, keeping the
// first spelling of every tag in input order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		key := TagKey(tag)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.Join(strings.Fields(tag), " "))
	}
	return out
}
