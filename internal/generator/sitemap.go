package generator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-folio/internal/domain"
)

type sitemapEntry struct {
	Location string
	LastMod  time.Time
}

func buildSitemap(baseURL string, docs []*domain.Document, fallback time.Time) string {
	entries := make([]sitemapEntry, 0, len(docs)+1)
	seen := map[string]struct{}{}
	add := func(route string, lastMod time.Time) {
		location := absoluteURL(baseURL, route)
		if _, ok := seen[location]; ok {
			return
		}
		seen[location] = struct{}{}
		entries = append(entries, sitemapEntry{Location: location, LastMod: lastMod})
	}

	add("/", fallback)
	for _, doc := range docs {
		lastMod := doc.UpdatedAt()
		if lastMod.IsZero() {
			lastMod = fallback
		}
		add(doc.Permalink(), lastMod)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location < entries[j].Location
	})

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range entries {
		b.WriteString("  <url>\n")
		fmt.Fprintf(&b, "    <loc>%s</loc>\n", escapeXML(entry.Location))
		if !entry.LastMod.IsZero() {
			fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", entry.LastMod.UTC().Format(time.RFC3339))
		}
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

func buildRobots(baseURL string, includeSitemap bool) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	if includeSitemap {
		fmt.Fprintf(&b, "\nSitemap: %s\n", absoluteURL(baseURL, sitemapFileName))
	}
	return b.String()
}
