package generator

import (
	"path"
	"strings"

	"github.com/goliatone/go-folio/internal/tags"
)

const (
	rssFileName      = "feed.xml"
	atomFileName     = "feed.atom.xml"
	sitemapFileName  = "sitemap.xml"
	robotsFileName   = "robots.txt"
	indexFileName    = "index.json"
	tagsFileName     = "tags.json"
	manifestFileName = ".folio-manifest.json"
)

// TagFeedPath returns the output path of the RSS feed for tag.
func TagFeedPath(tag tags.Tag) string {
	return path.Join("tags", tag.Slug, rssFileName)
}

func baseURLWithFallback(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}

func absoluteURL(base, route string) string {
	target := baseURLWithFallback(base)
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return target
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return target + normalized
}
