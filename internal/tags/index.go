// Package tags builds the reverse index from tag to documents.
package tags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-folio/internal/domain"
)

// Tag is one entry of the index.
type Tag struct {
	// Key is the folded comparison key.
	Key string `json:"key"`
	// Name is the spelling used by the newest document carrying the tag.
	Name string `json:"name"`
	// Slug is a URL-safe form of Name, used for per-tag feed paths.
	Slug string `json:"slug"`
	// IDs lists document ids in chronological order.
	IDs []string `json:"ids"`
}

// Count returns the number of documents carrying the tag.
func (t Tag) Count() int { return len(t.IDs) }

// Index maps tags to chronologically ordered document ids. It is never
// mutated after Build returns.
type Index struct {
	entries map[string]*Tag
	keys    []string
}

// Build indexes docs, which must already be in chronological order. The
// function is pure: the same input always yields the same index.
func Build(docs []*domain.Document) *Index {
	idx := &Index{entries: map[string]*Tag{}}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, name := range doc.Tags() {
			key := domain.TagKey(name)
			if key == "" {
				continue
			}
			entry, ok := idx.entries[key]
			if !ok {
				entry = &Tag{Key: key, Name: name}
				idx.entries[key] = entry
				idx.keys = append(idx.keys, key)
			}
			entry.IDs = append(entry.IDs, doc.ID())
		}
	}
	slices.Sort(idx.keys)
	idx.assignSlugs()
	return idx
}

// assignSlugs gives every entry a slug that is unique within the index.
// Distinct tags can slugify alike ("C", "C++"); in key order the first keeps
// the plain slug and the rest get the lowest free numeric suffix.
func (i *Index) assignSlugs() {
	base := make(map[string]string, len(i.keys))
	owners := map[string]int{}
	for _, key := range i.keys {
		s := tagSlug(i.entries[key].Name, key)
		base[key] = s
		owners[s]++
	}

	used := make(map[string]bool, len(i.keys))
	for _, key := range i.keys {
		used[base[key]] = true
	}
	claimed := map[string]bool{}
	for _, key := range i.keys {
		s := base[key]
		if owners[s] > 1 && claimed[s] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", s, n)
				if !used[candidate] {
					s = candidate
					used[s] = true
					break
				}
			}
		}
		claimed[base[key]] = true
		i.entries[key].Slug = s
	}
}

func tagSlug(name, key string) string {
	if s, err := slug.Normalize(name); err == nil && s != "" {
		return s
	}
	return strings.ReplaceAll(key, " ", "-")
}

// IDs returns the ids carrying tag, or an empty slice for an unknown tag.
func (i *Index) IDs(tag string) []string {
	entry, ok := i.Lookup(tag)
	if !ok {
		return []string{}
	}
	return entry.IDs
}

// Lookup returns the entry for tag, compared case-insensitively.
func (i *Index) Lookup(tag string) (Tag, bool) {
	if i == nil {
		return Tag{}, false
	}
	entry, ok := i.entries[domain.TagKey(tag)]
	if !ok {
		return Tag{}, false
	}
	return entry.clone(), true
}

// All returns every tag sorted by key.
func (i *Index) All() []Tag {
	if i == nil {
		return []Tag{}
	}
	out := make([]Tag, 0, len(i.keys))
	for _, key := range i.keys {
		out = append(out, i.entries[key].clone())
	}
	return out
}

// Len returns the number of distinct tags.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.keys)
}

func (t *Tag) clone() Tag {
	out := *t
	out.IDs = slices.Clone(t.IDs)
	return out
}
