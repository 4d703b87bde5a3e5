package domain

import "strings"

// LayoutKind controls which views include a document.
type LayoutKind string

const (
	LayoutPage LayoutKind = "page"
	LayoutPost LayoutKind = "post"
)

// String returns the lowercase label used in metadata and JSON output.
func (k LayoutKind) String() string { return string(k) }

// Valid reports whether the kind is one of the known layouts.
func (k LayoutKind) Valid() bool {
	return k == LayoutPage || k == LayoutPost
}

// ParseLayoutKind normalises a metadata value into a LayoutKind.
func ParseLayoutKind(value string) (LayoutKind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "page", "pages":
		return LayoutPage, true
	case "post", "posts":
		return LayoutPost, true
	default:
		return "", false
	}
}
