// Package pipeline runs ingestion passes over a content tree and publishes
// the resulting snapshots.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/internal/markdown"
	"github.com/goliatone/go-folio/internal/metrics"
	"github.com/goliatone/go-folio/internal/permalink"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

var errContentRequired = errors.New("pipeline: content filesystem is required")

// Config groups the per-stage configuration of a pass.
type Config struct {
	Loader     markdown.LoaderConfig
	Collection collection.Config
	Permalinks permalink.Config
}

// Service runs the strict Load, Build, Resolve, Snapshot sequence. It keeps
// no state between passes.
type Service struct {
	content  fs.FS
	loader   *markdown.Loader
	builder  *collection.Builder
	resolver *permalink.Resolver
	logger   interfaces.Logger
	now      func() time.Time
	observe  bool
}

// Option customises a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	renderer interfaces.MarkdownParser
	provider interfaces.LoggerProvider
	now      func() time.Time
	observe  bool
}

// WithRenderer overrides the goldmark renderer used for bodies and excerpts.
func WithRenderer(renderer interfaces.MarkdownParser) Option {
	return func(o *serviceOptions) {
		o.renderer = renderer
	}
}

// WithLoggerProvider scopes the pipeline, collection and markdown loggers.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithClock sets the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithoutMetrics disables Prometheus observations for this service.
func WithoutMetrics() Option {
	return func(o *serviceOptions) {
		o.observe = false
	}
}

// NewService wires a Service over content.
func NewService(content fs.FS, cfg Config, opts ...Option) *Service {
	o := serviceOptions{now: time.Now, observe: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	builderOpts := []collection.Option{collection.WithLogger(logging.CollectionLogger(o.provider))}
	if o.renderer != nil {
		builderOpts = append(builderOpts, collection.WithRenderer(o.renderer))
	}

	var loader *markdown.Loader
	if content != nil {
		loader = markdown.NewLoader(content, cfg.Loader)
	}

	return &Service{
		content:  content,
		loader:   loader,
		builder:  collection.NewBuilder(cfg.Collection, builderOpts...),
		resolver: permalink.NewResolver(cfg.Permalinks),
		logger:   logging.PipelineLogger(o.provider),
		now:      o.now,
		observe:  o.observe,
	}
}

// Build runs one ingestion pass. The first error aborts the pass and no
// snapshot is returned.
func (s *Service) Build(ctx context.Context) (*collection.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := s.now()

	snap, err := s.build(ctx)
	elapsed := s.now().Sub(start)

	if s.observe {
		stats := snap.Stats()
		metrics.ObserveBuild(elapsed, metrics.BuildStats{Posts: stats.Posts, Pages: stats.Pages, Tags: stats.Tags}, err)
	}
	if err != nil {
		s.logger.Error("pipeline.build.failed", "error", err, "duration", elapsed)
		return nil, err
	}

	stats := snap.Stats()
	s.logger.Info("pipeline.build.completed",
		"documents", stats.Documents,
		"posts", stats.Posts,
		"pages", stats.Pages,
		"tags", stats.Tags,
		"duration", elapsed,
	)
	return snap, nil
}

func (s *Service) build(ctx context.Context) (*collection.Snapshot, error) {
	if s.loader == nil {
		return nil, errContentRequired
	}

	sources, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pipeline.load.completed", "sources", len(sources))

	docs, err := s.builder.Build(ctx, sources.All())
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.resolver.Resolve(docs); err != nil {
		return nil, err
	}

	return collection.NewSnapshot(docs, s.now(), collection.WithLocation(s.resolver.Location()))
}
