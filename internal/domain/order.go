package domain

import "sort"

// Less implements the global chronological rule: newest PublishedAt first,
// ties broken by ascending ID. Undated documents sort after every dated one.
func Less(a, b *Document) bool {
	aDated, bDated := !a.publishedAt.IsZero(), !b.publishedAt.IsZero()
	if aDated != bDated {
		return aDated
	}
	if aDated && !a.publishedAt.Equal(b.publishedAt) {
		return a.publishedAt.After(b.publishedAt)
	}
	return a.id < b.id
}

// SortChronological orders docs in place using Less.
func SortChronological(docs []*Document) {
	sort.Slice(docs, func(i, j int) bool {
		return Less(docs[i], docs[j])
	})
}
