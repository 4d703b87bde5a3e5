// Package folio turns a directory of Markdown documents into an immutable,
// queryable collection and publishes it as feeds, a sitemap, JSON manifests
// and a read-only HTTP API.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/commands"
	sitecmd "github.com/goliatone/go-folio/internal/commands/site"
	"github.com/goliatone/go-folio/internal/domain"
	"github.com/goliatone/go-folio/internal/generator"
	httpapi "github.com/goliatone/go-folio/internal/http"
	"github.com/goliatone/go-folio/internal/listing"
	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/internal/logging/console"
	"github.com/goliatone/go-folio/internal/logging/gologger"
	"github.com/goliatone/go-folio/internal/markdown"
	"github.com/goliatone/go-folio/internal/permalink"
	"github.com/goliatone/go-folio/internal/pipeline"
	"github.com/goliatone/go-folio/internal/validation"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

type (
	// Snapshot is an immutable, indexed collection produced by one pass.
	Snapshot = collection.Snapshot
	// Document is one sealed document.
	Document = domain.Document
	// Listing answers ordering and pagination queries over a snapshot.
	Listing = listing.Listing
	// Page is one slice of the post feed.
	Page = listing.Page
	// BuildSiteCommand runs a pass and renders artifacts.
	BuildSiteCommand = sitecmd.BuildSiteCommand
	// BuildResult reports the generated artifacts of a run.
	BuildResult = generator.Result
	// ResultEnvelope is handed to BuildSiteCommand.ResultCallback.
	ResultEnvelope = sitecmd.ResultEnvelope
)

const (
	KindPost = domain.LayoutPost
	KindPage = domain.LayoutPage
)

var (
	ErrMalformedDocument  = domain.ErrMalformedDocument
	ErrMultipleMarkers    = domain.ErrMultipleMarkers
	ErrDuplicateID        = domain.ErrDuplicateID
	ErrPermalinkCollision = domain.ErrPermalinkCollision
	ErrInvalidPage        = domain.ErrInvalidPage
)

var errNilContext = errors.New("folio: context is required")

// Site is the top level runtime façade. It owns the publisher holding the
// current snapshot and wires every consumer to it.
type Site struct {
	cfg       Config
	provider  interfaces.LoggerProvider
	logger    interfaces.Logger
	location  *time.Location
	parser    *markdown.Parser
	renderer  interfaces.MarkdownParser
	content   fs.FS
	observe   bool
	now       func() time.Time
	writer    generator.ArtifactWriter
	pipeline  *pipeline.Service
	publisher *pipeline.Publisher
	generator *generator.Service
	siteBuild *sitecmd.BuildSiteHandler
}

// Option customises a Site.
type Option func(*Site)

// WithContentFS reads sources from fsys instead of Content.Dir on disk.
func WithContentFS(fsys fs.FS) Option {
	return func(s *Site) {
		if fsys != nil {
			s.content = fsys
		}
	}
}

// WithLoggerProvider overrides the provider built from the logging section.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(s *Site) {
		if provider != nil {
			s.provider = provider
		}
	}
}

// WithArtifactWriter overrides the filesystem writer used by the generator.
func WithArtifactWriter(writer generator.ArtifactWriter) Option {
	return func(s *Site) {
		if writer != nil {
			s.writer = writer
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Site) {
		if now != nil {
			s.now = now
		}
	}
}

// WithoutMetrics disables Prometheus observations and the /metrics route.
func WithoutMetrics() Option {
	return func(s *Site) {
		s.observe = false
	}
}

// New validates cfg and wires a Site. Nothing is read from the content tree
// until Build is called.
func New(cfg Config, opts ...Option) (*Site, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	site := &Site{cfg: cfg, observe: cfg.HTTP.Metrics, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(site)
		}
	}

	if site.provider == nil {
		provider, err := NewLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		site.provider = provider
	}
	site.logger = logging.ModuleLogger(site.provider, "folio")

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	site.location = loc

	parserCfg := markdown.ParserConfig{Location: loc}
	if path := strings.TrimSpace(cfg.Content.SchemaPath); path != "" {
		schema, err := validation.LoadMetadataSchema(os.DirFS(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return nil, err
		}
		parserCfg.Validator = schema
	}
	site.parser = markdown.NewParser(parserCfg)
	site.renderer = markdown.NewGoldmarkParser(interfaces.ParseOptions{
		Extensions: cfg.Markdown.Extensions,
		Sanitize:   cfg.Markdown.Sanitize,
		HardWraps:  cfg.Markdown.HardWraps,
		SafeMode:   cfg.Markdown.SafeMode,
	})

	if site.content == nil {
		site.content = os.DirFS(cfg.Content.Dir)
	}

	site.pipeline = site.newPipeline(cfg.Content.IncludeDrafts)
	site.publisher = pipeline.NewPublisher(site.pipeline,
		pipeline.WithPublisherLogger(logging.PipelineLogger(site.provider)),
	)
	site.generator = site.newGenerator("")
	site.siteBuild = sitecmd.NewBuildSiteHandler(sitecmd.HandlerConfig{
		Pipelines: func(includeDrafts bool) pipeline.SnapshotBuilder {
			if includeDrafts == cfg.Content.IncludeDrafts {
				return site.pipeline
			}
			return site.newPipeline(includeDrafts)
		},
		Generators: func(outputDir string) sitecmd.ArtifactGenerator {
			if !cfg.Generator.Enabled && outputDir == "" {
				return nil
			}
			if outputDir == "" || outputDir == cfg.Generator.OutputDir {
				return site.generator
			}
			return site.newGenerator(outputDir)
		},
		Publisher:     site.publisher,
		IncludeDrafts: cfg.Content.IncludeDrafts,
		Logger:        commands.CommandLogger(site.provider, "site"),
		Schedule:      cfg.Generator.Schedule,
	})

	site.logger.Debug("folio.site.configured",
		"content_dir", cfg.Content.Dir,
		"generator", cfg.Generator.Enabled,
		"timezone", loc.String(),
	)
	return site, nil
}

func (s *Site) newPipeline(includeDrafts bool) *pipeline.Service {
	opts := []pipeline.Option{
		pipeline.WithRenderer(s.renderer),
		pipeline.WithLoggerProvider(s.provider),
		pipeline.WithClock(s.now),
	}
	if !s.observe {
		opts = append(opts, pipeline.WithoutMetrics())
	}
	return pipeline.NewService(s.content, pipeline.Config{
		Loader: markdown.LoaderConfig{
			Pattern: s.cfg.Content.Pattern,
			Exclude: s.cfg.Content.Exclude,
			Workers: s.cfg.Content.Workers,
			Parser:  s.parser,
		},
		Collection: collection.Config{
			ExcerptMarker: s.cfg.Content.ExcerptMarker,
			IncludeDrafts: includeDrafts,
		},
		Permalinks: permalink.Config{
			BasePath: s.cfg.Permalinks.BasePath,
			Location: s.location,
		},
	}, opts...)
}

func (s *Site) newGenerator(outputDir string) *generator.Service {
	gen := s.cfg.Generator
	if outputDir == "" {
		outputDir = gen.OutputDir
	}
	opts := []generator.Option{
		generator.WithLogger(logging.GeneratorLogger(s.provider)),
		generator.WithClock(s.now),
	}
	if s.writer != nil && outputDir == gen.OutputDir {
		opts = append(opts, generator.WithWriter(s.writer))
	}
	return generator.NewService(generator.Config{
		OutputDir:        outputDir,
		BaseURL:          gen.BaseURL,
		Title:            gen.Title,
		Description:      gen.Description,
		Language:         gen.Language,
		GenerateFeeds:    gen.GenerateFeeds,
		GenerateTagFeeds: gen.GenerateTagFeeds,
		GenerateSitemap:  gen.GenerateSitemap,
		GenerateRobots:   gen.GenerateRobots,
		GenerateIndex:    gen.GenerateIndex,
		Incremental:      gen.Incremental,
		MaxFeedItems:     gen.MaxFeedItems,
	}, opts...)
}

// Config returns the configuration the site was built with.
func (s *Site) Config() Config { return s.cfg }

// LoggerProvider exposes the provider shared by every module logger.
func (s *Site) LoggerProvider() interfaces.LoggerProvider { return s.provider }

// Publisher exposes the publisher holding the current snapshot.
func (s *Site) Publisher() *pipeline.Publisher { return s.publisher }

// Build runs one pass and publishes the result. On failure the previously
// published snapshot stays current.
func (s *Site) Build(ctx context.Context) (*Snapshot, error) {
	if ctx == nil {
		return nil, errNilContext
	}
	return s.publisher.Rebuild(ctx)
}

// Current returns the published snapshot, nil before the first build.
func (s *Site) Current() *Snapshot { return s.publisher.Current() }

// Listing returns the listing over the published snapshot.
func (s *Site) Listing() *Listing { return s.publisher.Listing() }

// BuildSite runs msg through the site command handler: a pass, publication
// and artifact generation unless the generator is disabled.
func (s *Site) BuildSite(ctx context.Context, msg BuildSiteCommand) error {
	if ctx == nil {
		return errNilContext
	}
	return s.siteBuild.Execute(ctx, msg)
}

// BuildSiteHandler exposes the site build command handler for hosts that
// register it with their own registry or cron runner.
func (s *Site) BuildSiteHandler() *sitecmd.BuildSiteHandler { return s.siteBuild }

// Router returns the read API router bound to the publisher.
func (s *Site) Router() chi.Router {
	opts := []httpapi.Option{
		httpapi.WithBasePath(s.cfg.HTTP.BasePath),
		httpapi.WithLogger(logging.HTTPLogger(s.provider)),
		httpapi.WithDefaultPageSize(s.cfg.HTTP.DefaultPageSize),
	}
	if !s.observe {
		opts = append(opts, httpapi.WithoutMetrics())
	}
	return httpapi.NewAPI(s.publisher, opts...).Router()
}

// Watcher returns a watcher that rebuilds the site when files under
// Content.Dir change.
func (s *Site) Watcher() (*pipeline.Watcher, error) {
	return pipeline.NewPublisherWatcher(pipeline.WatchConfig{
		Root:        s.cfg.Content.Dir,
		Debounce:    s.cfg.Watch.Debounce.Std(),
		ExcludeDirs: s.cfg.Watch.ExcludeDirs,
	}, s.publisher, pipeline.WithWatcherLogger(logging.PipelineLogger(s.provider)))
}

// WatchBuild returns a watcher that runs msg through the site command handler
// for every settled burst of changes. Failed builds are logged and the
// watcher keeps running with the previous snapshot published.
func (s *Site) WatchBuild(msg BuildSiteCommand) (*pipeline.Watcher, error) {
	logger := logging.PipelineLogger(s.provider)
	return pipeline.NewWatcher(pipeline.WatchConfig{
		Root:        s.cfg.Content.Dir,
		Debounce:    s.cfg.Watch.Debounce.Std(),
		ExcludeDirs: s.cfg.Watch.ExcludeDirs,
	}, func(ctx context.Context, changed []string) error {
		if err := s.BuildSite(ctx, msg); err != nil {
			logger.Error("folio.watch.build_failed", "error", err, "changed", changed)
		}
		return nil
	}, pipeline.WithWatcherLogger(logger))
}

// NewLoggerProvider builds the provider selected by cfg.Provider.
func NewLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "console":
		level, err := console.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		return console.NewProvider(console.Options{Writer: os.Stderr, MinLevel: &level}), nil
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Provider)
	}
}
