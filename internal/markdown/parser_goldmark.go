package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-folio/pkg/interfaces"
)

// GoldmarkParser implements interfaces.MarkdownParser using the goldmark engine.
// The default engine is built once and is safe for concurrent use, so one
// parser can serve every document of a build.
type GoldmarkParser struct {
	defaultOptions interfaces.ParseOptions
	engine         goldmark.Markdown
}

// NewGoldmarkParser constructs a parser with the supplied defaults (GFM
// extensions unless overridden, hard wraps disabled, raw HTML allowed unless
// SafeMode or Sanitize is set).
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{
		defaultOptions: defaults,
		engine:         newGoldmarkEngine(defaults),
	}
}

// Parse satisfies interfaces.MarkdownParser by rendering Markdown into HTML
// using the parser's default configuration.
func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return convert(p.engine, markdown)
}

// ParseWithOptions renders Markdown into HTML using the provided options.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	return convert(newGoldmarkEngine(opts), markdown)
}

func convert(engine goldmark.Markdown, markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := engine.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return buf.Bytes(), nil
}

// newGoldmarkEngine builds a goldmark.Markdown for the supplied options.
// Unknown extension names are ignored.
func newGoldmarkEngine(opts interfaces.ParseOptions) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	// SafeMode and Sanitize both suppress raw HTML.
	if !opts.SafeMode && !opts.Sanitize {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
	)
}

var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// collectExtensions resolves names against extensionRegistry, dropping
// duplicates. Repeated aliases of one extension register it once.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		names = defaultExtensions
	}
	extenders := make([]goldmark.Extender, 0, len(names))
	seen := make(map[goldmark.Extender]struct{}, len(names))
	for _, name := range names {
		ext, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		extenders = append(extenders, ext)
	}
	return extenders
}
