package generator

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/domain"
)

type indexEntry struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Kind        domain.LayoutKind `json:"kind"`
	Permalink   string            `json:"permalink"`
	URL         string            `json:"url"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
	Tags        []string          `json:"tags"`
	Summary     string            `json:"summary,omitempty"`
}

type indexDocument struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Documents   []indexEntry `json:"documents"`
}

type tagEntry struct {
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Slug  string   `json:"slug"`
	Count int      `json:"count"`
	Feed  string   `json:"feed,omitempty"`
	IDs   []string `json:"ids"`
}

func buildIndexJSON(baseURL string, snap *collection.Snapshot, generatedAt time.Time) ([]byte, error) {
	out := indexDocument{GeneratedAt: generatedAt.UTC(), Documents: []indexEntry{}}
	for _, doc := range snap.Documents() {
		entry := indexEntry{
			ID:        doc.ID(),
			Title:     doc.Title(),
			Kind:      doc.Kind(),
			Permalink: doc.Permalink(),
			URL:       absoluteURL(baseURL, doc.Permalink()),
			Tags:      doc.Tags(),
			Summary:   doc.Summary(),
		}
		if entry.Tags == nil {
			entry.Tags = []string{}
		}
		if ts := doc.PublishedAt(); !ts.IsZero() {
			entry.PublishedAt = &ts
		}
		if ts := doc.UpdatedAt(); !ts.IsZero() {
			entry.UpdatedAt = &ts
		}
		out.Documents = append(out.Documents, entry)
	}
	return json.MarshalIndent(out, "", "  ")
}

// feeds maps tag keys to the output path of their feed, for tags that have one.
func buildTagsJSON(baseURL string, snap *collection.Snapshot, feeds map[string]string) ([]byte, error) {
	all := snap.Tags().All()
	out := make([]tagEntry, 0, len(all))
	for _, tag := range all {
		entry := tagEntry{
			Key:   tag.Key,
			Name:  tag.Name,
			Slug:  tag.Slug,
			Count: tag.Count(),
			IDs:   tag.IDs,
		}
		if feedPath, ok := feeds[tag.Key]; ok {
			entry.Feed = absoluteURL(baseURL, feedPath)
		}
		out = append(out, entry)
	}
	return json.MarshalIndent(out, "", "  ")
}
