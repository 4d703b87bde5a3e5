// Package listing exposes the read-only ordered views over a snapshot.
package listing

import (
	"slices"
	"time"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/domain"
)

// Listing answers chronological, tag and paginated queries. It is safe for
// concurrent use; all views are precomputed at construction.
type Listing struct {
	snapshot *collection.Snapshot
	byKind   map[domain.LayoutKind][]*domain.Document
	postPos  map[string]int
}

// New precomputes the views over snapshot.
func New(snapshot *collection.Snapshot) *Listing {
	l := &Listing{
		snapshot: snapshot,
		byKind:   map[domain.LayoutKind][]*domain.Document{},
		postPos:  map[string]int{},
	}
	for _, doc := range snapshot.Documents() {
		l.byKind[doc.Kind()] = append(l.byKind[doc.Kind()], doc)
	}
	for i, doc := range l.byKind[domain.LayoutPost] {
		l.postPos[doc.ID()] = i
	}
	return l
}

// Snapshot returns the snapshot the listing reads from.
func (l *Listing) Snapshot() *collection.Snapshot { return l.snapshot }

// Chronological returns documents of kind, newest first with ties broken by
// ascending id.
func (l *Listing) Chronological(kind domain.LayoutKind) []*domain.Document {
	docs := l.byKind[kind]
	if docs == nil {
		return []*domain.Document{}
	}
	return slices.Clone(docs)
}

// ByTag returns documents of either kind carrying tag, in chronological
// order. An unknown tag yields an empty slice.
func (l *Listing) ByTag(tag string) []*domain.Document {
	ids := l.snapshot.Tags().IDs(tag)
	out := make([]*domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := l.snapshot.Document(id); ok {
			out = append(out, doc)
		}
	}
	return out
}

// Page is one bounded slice of the post feed.
type Page struct {
	Items      []*domain.Document `json:"items"`
	Number     int                `json:"number"`
	Size       int                `json:"size"`
	TotalItems int                `json:"total_items"`
	TotalPages int                `json:"total_pages"`
	HasPrev    bool               `json:"has_prev"`
	HasNext    bool               `json:"has_next"`
}

// Page returns page number (1-based) of the post feed. A page past the end is
// empty rather than an error; only number or size below one fail, with
// domain.ErrInvalidPage.
func (l *Listing) Page(number, size int) (Page, error) {
	if number < 1 || size < 1 {
		return Page{}, domain.InvalidPage(number, size)
	}
	posts := l.byKind[domain.LayoutPost]
	total := len(posts)

	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}
	page := Page{
		Items:      []*domain.Document{},
		Number:     number,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
		HasPrev:    number > 1 && total > 0,
	}
	// number <= totalPages keeps (number-1)*size below total.
	if number > totalPages {
		return page, nil
	}
	start := (number - 1) * size
	end := start + min(size, total-start)
	page.Items = slices.Clone(posts[start:end])
	page.HasNext = end < total
	return page, nil
}

// Adjacent returns the posts immediately newer and older than the post id.
// Either may be nil; both are nil for pages and unknown ids.
func (l *Listing) Adjacent(id string) (newer, older *domain.Document) {
	pos, ok := l.postPos[id]
	if !ok {
		return nil, nil
	}
	posts := l.byKind[domain.LayoutPost]
	if pos > 0 {
		newer = posts[pos-1]
	}
	if pos+1 < len(posts) {
		older = posts[pos+1]
	}
	return newer, older
}

// Recent returns at most n of the newest posts.
func (l *Listing) Recent(n int) []*domain.Document {
	posts := l.byKind[domain.LayoutPost]
	if n <= 0 {
		return []*domain.Document{}
	}
	return slices.Clone(posts[:min(n, len(posts))])
}

// ArchiveMonth groups the posts published in one calendar month.
type ArchiveMonth struct {
	Year      int                `json:"year"`
	Month     time.Month         `json:"month"`
	Documents []*domain.Document `json:"documents"`
}

// Archive groups posts by year and month, newest month first. Months are
// taken in the snapshot's zone so they agree with permalink dates.
func (l *Listing) Archive() []ArchiveMonth {
	loc := l.snapshot.Location()
	out := []ArchiveMonth{}
	for _, doc := range l.byKind[domain.LayoutPost] {
		ts := doc.PublishedAt().In(loc)
		if n := len(out); n > 0 && out[n-1].Year == ts.Year() && out[n-1].Month == ts.Month() {
			out[n-1].Documents = append(out[n-1].Documents, doc)
			continue
		}
		out = append(out, ArchiveMonth{Year: ts.Year(), Month: ts.Month(), Documents: []*domain.Document{doc}})
	}
	return out
}
