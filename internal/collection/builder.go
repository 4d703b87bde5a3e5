package collection

import (
	"context"
	"fmt"
	"iter"
	"path"
	"regexp"
	"strings"

	"github.com/goliatone/go-folio/internal/domain"
	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/internal/markdown"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

// Config controls how sources become documents.
type Config struct {
	// ExcerptMarker overrides markdown.DefaultExcerptMarker.
	ExcerptMarker string
	// IncludeDrafts keeps documents whose metadata sets draft: true.
	IncludeDrafts bool
}

// Builder assembles parsed sources into sealed documents. A Builder holds no
// state between calls and can be reused for every ingestion pass.
type Builder struct {
	cfg      Config
	renderer interfaces.MarkdownParser
	logger   interfaces.Logger
}

// Option customises a Builder.
type Option func(*Builder)

// WithRenderer sets the Markdown renderer used for body and excerpt HTML.
func WithRenderer(renderer interfaces.MarkdownParser) Option {
	return func(b *Builder) {
		if renderer != nil {
			b.renderer = renderer
		}
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder constructs a Builder. Without WithRenderer it renders through
// goldmark with default options.
func NewBuilder(cfg Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		renderer: markdown.NewGoldmarkParser(interfaces.ParseOptions{}),
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build drains sources and returns the documents in chronological order. Any
// error, from the sequence or from a single document, aborts the pass and no
// documents are returned.
func (b *Builder) Build(ctx context.Context, sources iter.Seq2[*markdown.Source, error]) ([]*domain.Document, error) {
	seen := map[string]string{}
	var (
		docs    []*domain.Document
		drafts  int
		scanned int
	)

	for src, err := range sources {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if src == nil {
			continue
		}
		scanned++
		if src.Metadata.Draft && !b.cfg.IncludeDrafts {
			drafts++
			b.logger.Debug("collection.draft.skipped", "source_path", src.Path)
			continue
		}

		id := strings.TrimSpace(src.Metadata.ID)
		if id == "" {
			id = NormalizeID(src.Path)
		}
		if id == "" {
			return nil, domain.MalformedDocument(src.Path, "cannot derive an id from the source path")
		}
		if first, dup := seen[id]; dup {
			return nil, domain.DuplicateID(id, first, src.Path)
		}
		seen[id] = src.Path

		doc, err := b.document(id, src)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	domain.SortChronological(docs)
	b.logger.Info("collection.build.completed",
		"sources", scanned,
		"documents", len(docs),
		"drafts_skipped", drafts,
	)
	return docs, nil
}

func (b *Builder) document(id string, src *markdown.Source) (*domain.Document, error) {
	excerpt, err := markdown.ExtractExcerpt(src.Path, src.Body, b.cfg.ExcerptMarker)
	if err != nil {
		return nil, err
	}

	bodyHTML, err := b.renderer.Parse([]byte(excerpt.Body))
	if err != nil {
		return nil, fmt.Errorf("collection: render %s: %w", src.Path, err)
	}
	excerptHTML := bodyHTML
	if excerpt.Found {
		if excerptHTML, err = b.renderer.Parse([]byte(excerpt.Text)); err != nil {
			return nil, fmt.Errorf("collection: render excerpt %s: %w", src.Path, err)
		}
	}

	summary := src.Metadata.Summary
	if strings.TrimSpace(summary) == "" {
		if summary, err = markdown.PlainText(excerptHTML); err != nil {
			return nil, fmt.Errorf("collection: summarise %s: %w", src.Path, err)
		}
	}

	return domain.NewDocument(domain.DocumentInput{
		ID:          id,
		SourcePath:  src.Path,
		Metadata:    src.Metadata,
		Body:        excerpt.Body,
		BodyHTML:    string(bodyHTML),
		Excerpt:     excerpt.Text,
		ExcerptHTML: string(excerptHTML),
		Summary:     summary,
	})
}

var (
	separatorRuns = regexp.MustCompile(`[\s_-]+`)
	slashRuns     = regexp.MustCompile(`-*/[-/]*`)
)

// NormalizeID derives a document id from its source path: the extension is
// dropped, the path is lowercased, backslashes become slashes, whitespace and
// underscore runs become a single dash, and separators are collapsed and
// trimmed. "Posts\\2022_10_08 Hello.md" becomes "posts/2022-10-08-hello".
func NormalizeID(sourcePath string) string {
	p := strings.ReplaceAll(strings.TrimSpace(sourcePath), "\\", "/")
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.ToLower(p)
	p = separatorRuns.ReplaceAllString(p, "-")
	p = slashRuns.ReplaceAllString(p, "/")
	p = strings.TrimLeft(p, "./-")
	return strings.TrimRight(p, "/-")
}
