package domain

import (
	"encoding/json"
	"errors"
	"maps"
	"strings"
	"time"
)

// Metadata is the typed view of a document's metadata block. Required fields
// are validated by the parser; anything unknown lands in Params untouched.
type Metadata struct {
	Title       string
	ID          string
	Slug        string
	Permalink   string
	Summary     string
	Layout      LayoutKind
	PublishedAt time.Time
	UpdatedAt   time.Time
	Tags        []string
	Draft       bool
	Params      map[string]any
}

// HasDate reports whether the metadata carried a publication date.
func (m Metadata) HasDate() bool {
	return !m.PublishedAt.IsZero()
}

// DocumentInput carries everything the collection builder derives for a
// single source before the document is sealed.
type DocumentInput struct {
	ID          string
	SourcePath  string
	Metadata    Metadata
	Body        string
	BodyHTML    string
	Excerpt     string
	ExcerptHTML string
	Summary     string
}

// Document is one published unit. All fields are fixed at construction time
// except the permalink, which is assigned exactly once by the resolver.
type Document struct {
	id          string
	sourcePath  string
	title       string
	slug        string
	kind        LayoutKind
	publishedAt time.Time
	updatedAt   time.Time
	tags        []string
	body        string
	bodyHTML    string
	excerpt     string
	excerptHTML string
	summary     string
	draft       bool
	explicit    string
	params      map[string]any

	permalink string
}

var errDocumentIDRequired = errors.New("domain: document id is required")

// NewDocument seals a DocumentInput into an immutable Document. Tags are
// collapsed into a set using TagKey while the first spelling of each tag is
// kept for display.
func NewDocument(in DocumentInput) (*Document, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, errDocumentIDRequired
	}
	if strings.TrimSpace(in.Metadata.Title) == "" {
		return nil, MalformedDocument(in.SourcePath, "title is required")
	}
	kind := in.Metadata.Layout
	if !kind.Valid() {
		kind = LayoutPage
		if in.Metadata.HasDate() {
			kind = LayoutPost
		}
	}
	if kind == LayoutPost && !in.Metadata.HasDate() {
		return nil, MalformedDocument(in.SourcePath, "posts require a publication date")
	}
	excerpt := in.Excerpt
	if len(excerpt) > len(in.Body) {
		excerpt = in.Body
	}

	params := map[string]any{}
	maps.Copy(params, in.Metadata.Params)

	return &Document{
		id:          id,
		sourcePath:  in.SourcePath,
		title:       strings.TrimSpace(in.Metadata.Title),
		slug:        strings.TrimSpace(in.Metadata.Slug),
		kind:        kind,
		publishedAt: in.Metadata.PublishedAt,
		updatedAt:   in.Metadata.UpdatedAt,
		tags:        NormalizeTags(in.Metadata.Tags),
		body:        in.Body,
		bodyHTML:    in.BodyHTML,
		excerpt:     excerpt,
		excerptHTML: in.ExcerptHTML,
		summary:     strings.TrimSpace(in.Summary),
		draft:       in.Metadata.Draft,
		explicit:    strings.TrimSpace(in.Metadata.Permalink),
		params:      params,
	}, nil
}

func (d *Document) ID() string             { return d.id }
func (d *Document) SourcePath() string     { return d.sourcePath }
func (d *Document) Title() string          { return d.title }
func (d *Document) Slug() string           { return d.slug }
func (d *Document) Kind() LayoutKind       { return d.kind }
func (d *Document) PublishedAt() time.Time { return d.publishedAt }
func (d *Document) Body() string           { return d.body }
func (d *Document) BodyHTML() string       { return d.bodyHTML }
func (d *Document) Excerpt() string        { return d.excerpt }
func (d *Document) ExcerptHTML() string    { return d.excerptHTML }
func (d *Document) Summary() string        { return d.summary }
func (d *Document) Draft() bool            { return d.draft }
func (d *Document) Permalink() string      { return d.permalink }

// ExplicitPermalink returns the permalink override from metadata, if any.
func (d *Document) ExplicitPermalink() string { return d.explicit }

// UpdatedAt returns the last update time, falling back to PublishedAt.
func (d *Document) UpdatedAt() time.Time {
	if d.updatedAt.IsZero() {
		return d.publishedAt
	}
	return d.updatedAt
}

// Tags returns a copy of the document's tag set in first-seen order.
func (d *Document) Tags() []string {
	return append([]string(nil), d.tags...)
}

// HasTag reports whether the document carries tag, compared with TagKey.
func (d *Document) HasTag(tag string) bool {
	key := TagKey(tag)
	if key == "" {
		return false
	}
	for _, candidate := range d.tags {
		if TagKey(candidate) == key {
			return true
		}
	}
	return false
}

// Param returns a passthrough metadata value.
func (d *Document) Param(key string) (any, bool) {
	value, ok := d.params[key]
	return value, ok
}

// Params returns a shallow copy of the passthrough metadata.
func (d *Document) Params() map[string]any {
	out := make(map[string]any, len(d.params))
	maps.Copy(out, d.params)
	return out
}

// HasExcerpt reports whether the excerpt is shorter than the body, which is
// the case when the author placed a truncation marker.
func (d *Document) HasExcerpt() bool {
	return len(d.excerpt) < len(d.body)
}

// AssignPermalink sets the document's permalink. A second call fails with
// ErrPermalinkAssigned.
func (d *Document) AssignPermalink(permalink string) error {
	if d.permalink != "" {
		return PermalinkAssigned(d.id, d.permalink)
	}
	d.permalink = permalink
	return nil
}

type documentJSON struct {
	ID          string         `json:"id"`
	SourcePath  string         `json:"source_path"`
	Title       string         `json:"title"`
	Kind        LayoutKind     `json:"kind"`
	Permalink   string         `json:"permalink"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	Tags        []string       `json:"tags"`
	Summary     string         `json:"summary,omitempty"`
	Excerpt     string         `json:"excerpt"`
	ExcerptHTML string         `json:"excerpt_html,omitempty"`
	BodyHTML    string         `json:"body_html,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// MarshalJSON renders the read-only view consumed by templating layers.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{
		ID:          d.id,
		SourcePath:  d.sourcePath,
		Title:       d.title,
		Kind:        d.kind,
		Permalink:   d.permalink,
		Tags:        d.Tags(),
		Summary:     d.summary,
		Excerpt:     d.excerpt,
		ExcerptHTML: d.excerptHTML,
		BodyHTML:    d.bodyHTML,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if !d.publishedAt.IsZero() {
		published := d.publishedAt
		out.PublishedAt = &published
	}
	if !d.updatedAt.IsZero() {
		updated := d.updatedAt
		out.UpdatedAt = &updated
	}
	if len(d.params) > 0 {
		out.Params = d.Params()
	}
	return json.Marshal(out)
}
