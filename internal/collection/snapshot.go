package collection

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/goliatone/go-folio/internal/domain"
	"github.com/goliatone/go-folio/internal/tags"
)

var errPermalinkMissing = errors.New("collection: document has no permalink")

// Stats summarises a snapshot.
type Stats struct {
	Documents int       `json:"documents"`
	Posts     int       `json:"posts"`
	Pages     int       `json:"pages"`
	Tags      int       `json:"tags"`
	BuiltAt   time.Time `json:"built_at"`
}

// Snapshot is the immutable result of one ingestion pass: documents in
// chronological order, their lookups and the tag index. Snapshots are shared
// read-only between any number of readers.
type Snapshot struct {
	documents   []*domain.Document
	byID        map[string]*domain.Document
	byPermalink map[string]*domain.Document
	tags        *tags.Index
	stats       Stats
	location    *time.Location
}

// SnapshotOption customises a Snapshot.
type SnapshotOption func(*Snapshot)

// WithLocation sets the zone calendar views use for publish dates. It should
// match the zone permalinks were resolved in. Defaults to UTC.
func WithLocation(loc *time.Location) SnapshotOption {
	return func(s *Snapshot) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewSnapshot seals docs into a Snapshot. Every document must already carry a
// permalink. docs is copied and re-sorted, so callers may keep their slice.
func NewSnapshot(docs []*domain.Document, builtAt time.Time, opts ...SnapshotOption) (*Snapshot, error) {
	sorted := slices.Clone(docs)
	sorted = slices.DeleteFunc(sorted, func(d *domain.Document) bool { return d == nil })
	domain.SortChronological(sorted)

	s := &Snapshot{
		documents:   sorted,
		byID:        make(map[string]*domain.Document, len(sorted)),
		byPermalink: make(map[string]*domain.Document, len(sorted)),
		stats:       Stats{Documents: len(sorted), BuiltAt: builtAt},
		location:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, doc := range sorted {
		if doc.Permalink() == "" {
			return nil, fmt.Errorf("%w: %s", errPermalinkMissing, doc.ID())
		}
		if prev, ok := s.byID[doc.ID()]; ok {
			return nil, domain.DuplicateID(doc.ID(), prev.SourcePath(), doc.SourcePath())
		}
		if prev, ok := s.byPermalink[doc.Permalink()]; ok {
			return nil, domain.PermalinkCollision(doc.Permalink(), prev.ID(), doc.ID())
		}
		s.byID[doc.ID()] = doc
		s.byPermalink[doc.Permalink()] = doc
		switch doc.Kind() {
		case domain.LayoutPost:
			s.stats.Posts++
		case domain.LayoutPage:
			s.stats.Pages++
		}
	}
	s.tags = tags.Build(sorted)
	s.stats.Tags = s.tags.Len()
	return s, nil
}

// Documents returns every document in chronological order.
func (s *Snapshot) Documents() []*domain.Document {
	if s == nil {
		return nil
	}
	return slices.Clone(s.documents)
}

// Document looks a document up by id.
func (s *Snapshot) Document(id string) (*domain.Document, bool) {
	if s == nil {
		return nil, false
	}
	doc, ok := s.byID[id]
	return doc, ok
}

// ByPermalink looks a document up by its URL path.
func (s *Snapshot) ByPermalink(permalink string) (*domain.Document, bool) {
	if s == nil {
		return nil, false
	}
	doc, ok := s.byPermalink[permalink]
	return doc, ok
}

// Location returns the zone calendar views should use.
func (s *Snapshot) Location() *time.Location {
	if s == nil {
		return time.UTC
	}
	return s.location
}

// Tags returns the tag index.
func (s *Snapshot) Tags() *tags.Index {
	if s == nil {
		return tags.Build(nil)
	}
	return s.tags
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.documents)
}

func (s *Snapshot) BuiltAt() time.Time { return s.Stats().BuiltAt }

func (s *Snapshot) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return s.stats
}
