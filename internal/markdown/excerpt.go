package markdown

import (
	"strings"
	"unicode"

	"github.com/goliatone/go-folio/internal/domain"
)

// DefaultExcerptMarker is the sentinel line separating the excerpt from the
// rest of a body.
const DefaultExcerptMarker = "<!--more-->"

// Excerpt is the result of scanning a body for the truncation marker.
type Excerpt struct {
	// Text is the content before the marker with trailing whitespace trimmed,
	// or the full body when no marker is present.
	Text string
	// Body is the full body with the marker line removed.
	Body string
	// Found reports whether a marker was present.
	Found bool
}

// ExtractExcerpt locates marker in body. The marker must occupy a whole line
// (surrounding whitespace is ignored) and lines inside fenced code blocks are
// not considered. More than one marker fails with domain.ErrMultipleMarkers.
func ExtractExcerpt(path string, body []byte, marker string) (Excerpt, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		marker = DefaultExcerptMarker
	}
	text := string(body)

	type span struct{ start, end int }
	var markers []span

	fence := ""
	offset := 0
	for offset < len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		next := len(text)
		if end >= 0 {
			next = offset + end + 1
		}
		line := strings.TrimSpace(text[offset:next])

		switch {
		case fence != "":
			if strings.HasPrefix(line, fence) {
				fence = ""
			}
		case strings.HasPrefix(line, "```"):
			fence = "```"
		case strings.HasPrefix(line, "~~~"):
			fence = "~~~"
		case line == marker:
			markers = append(markers, span{start: offset, end: next})
		}
		offset = next
	}

	switch len(markers) {
	case 0:
		return Excerpt{Text: text, Body: text}, nil
	case 1:
		m := markers[0]
		return Excerpt{
			Text:  strings.TrimRightFunc(text[:m.start], unicode.IsSpace),
			Body:  text[:m.start] + text[m.end:],
			Found: true,
		}, nil
	default:
		return Excerpt{}, domain.MultipleMarkers(path, len(markers))
	}
}
