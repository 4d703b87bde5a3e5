package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from rendered HTML and collapses whitespace. It is
// used to derive feed summaries from rendered excerpts.
func PlainText(html []byte) (string, error) {
	if len(bytes.TrimSpace(html)) == 0 {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("markdown plain text: %w", err)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
