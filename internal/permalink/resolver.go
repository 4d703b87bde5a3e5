// Package permalink assigns every document a unique URL path.
package permalink

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-folio/internal/domain"
)

// Config configures permalink resolution.
type Config struct {
	// BasePath prefixes every permalink, e.g. "/blog".
	BasePath string
	// Location is the zone used to derive the date segments of post
	// permalinks. Defaults to UTC.
	Location *time.Location
}

// Resolver computes permalinks for a whole collection at once.
type Resolver struct {
	base     string
	location *time.Location
}

// NewResolver constructs a Resolver.
func NewResolver(cfg Config) *Resolver {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{base: cleanBase(cfg.BasePath), location: loc}
}

// Location returns the zone used for post date segments.
func (r *Resolver) Location() *time.Location { return r.location }

// Path returns the permalink doc would receive, without assigning it.
//
// Posts resolve to /{yyyy}/{mm}/{dd}/{slug}. Pages use their explicit
// permalink when set and /{slug} otherwise. The slug is the explicit slug
// metadata, else the slugified title, else the last segment of the id.
func (r *Resolver) Path(doc *domain.Document) string {
	var p string
	switch {
	case doc.Kind() == domain.LayoutPost:
		ts := doc.PublishedAt().In(r.location)
		p = fmt.Sprintf("/%04d/%02d/%02d/%s", ts.Year(), int(ts.Month()), ts.Day(), Slug(doc))
	case doc.ExplicitPermalink() != "":
		p = cleanPath(doc.ExplicitPermalink())
	default:
		p = "/" + Slug(doc)
	}
	if r.base == "" {
		return p
	}
	if p == "/" {
		return r.base
	}
	return r.base + p
}

// Resolve computes every permalink, checks them for collisions and only then
// assigns them. On error no document has been modified.
func (r *Resolver) Resolve(docs []*domain.Document) error {
	paths := make([]string, len(docs))
	owners := make(map[string]string, len(docs))
	for i, doc := range docs {
		p := r.Path(doc)
		key := collisionKey(p)
		if owner, taken := owners[key]; taken {
			return domain.PermalinkCollision(p, owner, doc.ID())
		}
		owners[key] = doc.ID()
		paths[i] = p
	}
	for i, doc := range docs {
		if err := doc.AssignPermalink(paths[i]); err != nil {
			return err
		}
	}
	return nil
}

// Slug returns the URL slug for doc.
func Slug(doc *domain.Document) string {
	if s := normalize(doc.Slug()); s != "" {
		return s
	}
	if s := normalize(doc.Title()); s != "" {
		return s
	}
	id := doc.ID()
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	return id
}

func normalize(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	s, err := slug.Normalize(value)
	if err != nil {
		return ""
	}
	return s
}

// "/about" and "/about/" address the same resource.
func collisionKey(p string) string {
	if len(p) > 1 {
		return strings.TrimSuffix(p, "/")
	}
	return p
}

func cleanPath(p string) string {
	trimmed := strings.TrimSpace(p)
	clean := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	if clean != "/" && strings.HasSuffix(trimmed, "/") {
		clean += "/"
	}
	return clean
}

func cleanBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	return strings.TrimRight(path.Clean("/"+strings.TrimPrefix(base, "/")), "/")
}
