package generator

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/goliatone/go-folio/internal/domain"
	"github.com/goliatone/go-folio/internal/identity"
)

// DefaultMaxFeedItems caps the number of entries per feed.
const DefaultMaxFeedItems = 20

type feedItem struct {
	Title       string
	Summary     string
	ContentHTML string
	Link        string
	GUID        string
	Categories  []string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

type feedDocument struct {
	Title       string
	Description string
	// Path is the site-relative output path, used for the self link and id.
	Path  string
	Items []feedItem
}

func (s *Service) feedItems(docs []*domain.Document) []feedItem {
	limit := s.cfg.MaxFeedItems
	if limit <= 0 {
		limit = DefaultMaxFeedItems
	}
	items := make([]feedItem, 0, min(limit, len(docs)))
	for _, doc := range docs {
		if doc.Kind() != domain.LayoutPost {
			continue
		}
		if len(items) == limit {
			break
		}
		items = append(items, feedItem{
			Title:       doc.Title(),
			Summary:     normalizeWhitespace(doc.Summary()),
			ContentHTML: doc.ExcerptHTML(),
			Link:        absoluteURL(s.cfg.BaseURL, doc.Permalink()),
			GUID:        identity.URN(identity.DocumentUUID(doc.ID())),
			Categories:  doc.Tags(),
			PublishedAt: doc.PublishedAt(),
			UpdatedAt:   doc.UpdatedAt(),
		})
	}
	return items
}

func buildRSSFeed(baseURL, language string, doc feedDocument, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">` + "\n")
	b.WriteString("  <channel>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", escapeXML(doc.Title))
	fmt.Fprintf(&b, "    <link>%s</link>\n", escapeXML(baseURLWithFallback(baseURL)))
	fmt.Fprintf(&b, "    <description>%s</description>\n", escapeXML(doc.Description))
	if language != "" {
		fmt.Fprintf(&b, "    <language>%s</language>\n", escapeXML(language))
	}
	fmt.Fprintf(&b, "    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, `    <atom:link href="%s" rel="self" type="application/rss+xml" />`+"\n", escapeXML(absoluteURL(baseURL, doc.Path)))
	for _, item := range doc.Items {
		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <title>%s</title>\n", escapeXML(item.Title))
		fmt.Fprintf(&b, "      <link>%s</link>\n", escapeXML(item.Link))
		fmt.Fprintf(&b, "      <guid isPermaLink=\"false\">%s</guid>\n", escapeXML(item.GUID))
		fmt.Fprintf(&b, "      <pubDate>%s</pubDate>\n", item.PublishedAt.UTC().Format(time.RFC1123Z))
		for _, category := range item.Categories {
			fmt.Fprintf(&b, "      <category>%s</category>\n", escapeXML(category))
		}
		if item.Summary != "" {
			fmt.Fprintf(&b, "      <description>%s</description>\n", escapeXML(item.Summary))
		}
		b.WriteString("    </item>\n")
	}
	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

func buildAtomFeed(baseURL, language string, doc feedDocument, generatedAt time.Time) string {
	self := absoluteURL(baseURL, doc.Path)
	updated := generatedAt
	if len(doc.Items) > 0 {
		updated = doc.Items[0].UpdatedAt
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if language != "" {
		fmt.Fprintf(&b, `<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXML(language))
	} else {
		b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	}
	fmt.Fprintf(&b, "  <id>%s</id>\n", escapeXML(identity.URN(identity.FeedUUID(doc.Path))))
	fmt.Fprintf(&b, "  <title>%s</title>\n", escapeXML(doc.Title))
	if doc.Description != "" {
		fmt.Fprintf(&b, "  <subtitle>%s</subtitle>\n", escapeXML(doc.Description))
	}
	fmt.Fprintf(&b, "  <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, `  <link rel="alternate" href="%s" />`+"\n", escapeXML(baseURLWithFallback(baseURL)))
	fmt.Fprintf(&b, `  <link rel="self" href="%s" />`+"\n", escapeXML(self))
	for _, item := range doc.Items {
		b.WriteString("  <entry>\n")
		fmt.Fprintf(&b, "    <id>%s</id>\n", escapeXML(item.GUID))
		fmt.Fprintf(&b, "    <title>%s</title>\n", escapeXML(item.Title))
		fmt.Fprintf(&b, `    <link href="%s" />`+"\n", escapeXML(item.Link))
		fmt.Fprintf(&b, "    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "    <updated>%s</updated>\n", item.UpdatedAt.UTC().Format(time.RFC3339))
		for _, category := range item.Categories {
			fmt.Fprintf(&b, `    <category term="%s" />`+"\n", escapeXML(category))
		}
		if item.Summary != "" {
			fmt.Fprintf(&b, "    <summary>%s</summary>\n", escapeXML(item.Summary))
		}
		if item.ContentHTML != "" {
			fmt.Fprintf(&b, "    <content type=\"html\">%s</content>\n", escapeXML(item.ContentHTML))
		}
		b.WriteString("  </entry>\n")
	}
	b.WriteString("</feed>\n")
	return b.String()
}

func normalizeWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}
