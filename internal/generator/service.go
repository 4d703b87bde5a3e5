package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/domain"
	"github.com/goliatone/go-folio/internal/listing"
	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

var errSnapshotRequired = errors.New("generator: snapshot is required")

// Config captures the artifact toggles and site metadata.
type Config struct {
	OutputDir   string
	BaseURL     string
	Title       string
	Description string
	Language    string

	GenerateFeeds    bool
	GenerateTagFeeds bool
	GenerateSitemap  bool
	GenerateRobots   bool
	GenerateIndex    bool
	// Incremental skips artifacts whose checksum matches the previous run.
	Incremental  bool
	MaxFeedItems int
}

// Options narrows a single run.
type Options struct {
	DryRun bool
}

// Artifact reports one generated file.
type Artifact struct {
	Path     string        `json:"path"`
	Category WriteCategory `json:"category"`
	Checksum string        `json:"checksum"`
	Size     int64         `json:"size"`
	Skipped  bool          `json:"skipped,omitempty"`
}

// Result reports aggregated run metadata.
type Result struct {
	Artifacts []Artifact    `json:"artifacts"`
	Written   int           `json:"written"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`
}

// Service renders feeds, the sitemap and JSON manifests from a snapshot.
type Service struct {
	cfg    Config
	writer ArtifactWriter
	logger interfaces.Logger
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithWriter overrides the filesystem writer rooted at Config.OutputDir.
func WithWriter(writer ArtifactWriter) Option {
	return func(s *Service) {
		if writer != nil {
			s.writer = writer
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a generator with the provided configuration.
func NewService(cfg Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.writer == nil {
		s.writer = NewFSWriter(cfg.OutputDir)
	}
	return s
}

type pendingArtifact struct {
	path        string
	category    WriteCategory
	contentType string
	content     []byte
}

// Generate writes every enabled artifact for snap. Artifacts are generated in
// full before the first write so a rendering error leaves the output
// directory untouched.
func (s *Service) Generate(ctx context.Context, snap *collection.Snapshot, opts Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errSnapshotRequired
	}

	start := s.now()
	generatedAt := snap.BuiltAt()
	if generatedAt.IsZero() {
		generatedAt = start
	}

	pending, err := s.render(snap, generatedAt)
	if err != nil {
		return nil, err
	}

	writer := s.writer
	if opts.DryRun {
		writer = NewNoopWriter()
	}

	previous := newBuildManifest()
	if s.cfg.Incremental && !opts.DryRun {
		if previous, err = s.loadManifest(ctx, writer); err != nil {
			s.logger.Warn("generator.manifest.invalid", "error", err)
			previous = newBuildManifest()
		}
	}

	result := &Result{DryRun: opts.DryRun, Artifacts: make([]Artifact, 0, len(pending))}
	next := newBuildManifest()
	next.GeneratedAt = generatedAt
	dirs := map[string]struct{}{}

	if err := writer.EnsureDir(ctx, ""); err != nil {
		return nil, fmt.Errorf("generator: ensure output dir: %w", err)
	}
	for _, item := range pending {
		checksum := computeHash(item.content)
		size := int64(len(item.content))
		next.record(item.path, item.category, checksum, size)

		artifact := Artifact{Path: item.path, Category: item.category, Checksum: checksum, Size: size}
		if s.cfg.Incremental && previous.unchanged(item.path, checksum) {
			artifact.Skipped = true
			result.Skipped++
			result.Artifacts = append(result.Artifacts, artifact)
			continue
		}
		if err := ensureDir(ctx, writer, dirs, path.Dir(item.path)); err != nil {
			return nil, fmt.Errorf("generator: ensure dir for %s: %w", item.path, err)
		}
		if err := writer.WriteFile(ctx, WriteRequest{
			Path:        item.path,
			Content:     bytes.NewReader(item.content),
			Size:        size,
			Category:    item.category,
			ContentType: item.contentType,
			Checksum:    checksum,
		}); err != nil {
			return nil, fmt.Errorf("generator: write %s: %w", item.path, err)
		}
		result.Written++
		result.Artifacts = append(result.Artifacts, artifact)
	}

	if !opts.DryRun {
		if err := s.persistManifest(ctx, writer, next); err != nil {
			return nil, err
		}
	}

	result.Duration = s.now().Sub(start)
	s.logger.Info("generator.run.completed",
		"written", result.Written,
		"skipped", result.Skipped,
		"dry_run", opts.DryRun,
		"duration", result.Duration,
	)
	return result, nil
}

func (s *Service) render(snap *collection.Snapshot, generatedAt time.Time) ([]pendingArtifact, error) {
	view := listing.New(snap)
	var out []pendingArtifact

	tagFeeds := map[string]string{}
	if s.cfg.GenerateFeeds {
		main := feedDocument{
			Title:       s.siteTitle(),
			Description: s.siteDescription(),
			Items:       s.feedItems(view.Chronological(domain.LayoutPost)),
		}
		main.Path = rssFileName
		out = append(out, pendingArtifact{rssFileName, CategoryFeed, "application/rss+xml",
			[]byte(buildRSSFeed(s.cfg.BaseURL, s.cfg.Language, main, generatedAt))})
		main.Path = atomFileName
		out = append(out, pendingArtifact{atomFileName, CategoryFeed, "application/atom+xml",
			[]byte(buildAtomFeed(s.cfg.BaseURL, s.cfg.Language, main, generatedAt))})

		if s.cfg.GenerateTagFeeds {
			for _, tag := range snap.Tags().All() {
				items := s.feedItems(view.ByTag(tag.Key))
				if len(items) == 0 {
					continue
				}
				feedPath := TagFeedPath(tag)
				doc := feedDocument{
					Title:       fmt.Sprintf("%s: %s", s.siteTitle(), tag.Name),
					Description: fmt.Sprintf("Posts tagged %s", tag.Name),
					Path:        feedPath,
					Items:       items,
				}
				tagFeeds[tag.Key] = feedPath
				out = append(out, pendingArtifact{feedPath, CategoryFeed, "application/rss+xml",
					[]byte(buildRSSFeed(s.cfg.BaseURL, s.cfg.Language, doc, generatedAt))})
			}
		}
	}

	if s.cfg.GenerateSitemap {
		out = append(out, pendingArtifact{sitemapFileName, CategorySitemap, "application/xml",
			[]byte(buildSitemap(s.cfg.BaseURL, snap.Documents(), generatedAt))})
	}
	if s.cfg.GenerateRobots {
		out = append(out, pendingArtifact{robotsFileName, CategoryRobots, "text/plain",
			[]byte(buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap))})
	}
	if s.cfg.GenerateIndex {
		index, err := buildIndexJSON(s.cfg.BaseURL, snap, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("generator: encode %s: %w", indexFileName, err)
		}
		tagsJSON, err := buildTagsJSON(s.cfg.BaseURL, snap, tagFeeds)
		if err != nil {
			return nil, fmt.Errorf("generator: encode %s: %w", tagsFileName, err)
		}
		out = append(out,
			pendingArtifact{indexFileName, CategoryIndex, "application/json", index},
			pendingArtifact{tagsFileName, CategoryIndex, "application/json", tagsJSON},
		)
	}

	seen := make(map[string]bool, len(out))
	for _, artifact := range out {
		if seen[artifact.path] {
			return nil, fmt.Errorf("generator: artifact %s rendered twice", artifact.path)
		}
		seen[artifact.path] = true
	}
	return out, nil
}

func (s *Service) siteTitle() string {
	if title := strings.TrimSpace(s.cfg.Title); title != "" {
		return title
	}
	return baseURLWithFallback(s.cfg.BaseURL)
}

func (s *Service) siteDescription() string {
	if desc := strings.TrimSpace(s.cfg.Description); desc != "" {
		return desc
	}
	return "Latest posts"
}

func (s *Service) loadManifest(ctx context.Context, writer ArtifactWriter) (*buildManifest, error) {
	data, err := writer.ReadFile(ctx, manifestFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newBuildManifest(), nil
		}
		return nil, err
	}
	return parseManifest(data)
}

func (s *Service) persistManifest(ctx context.Context, writer ArtifactWriter, manifest *buildManifest) error {
	data, err := manifest.encode()
	if err != nil {
		return fmt.Errorf("generator: encode manifest: %w", err)
	}
	return writer.WriteFile(ctx, WriteRequest{
		Path:        manifestFileName,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    CategoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
	})
}

func ensureDir(ctx context.Context, writer ArtifactWriter, cache map[string]struct{}, dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if _, ok := cache[dir]; ok {
		return nil
	}
	cache[dir] = struct{}{}
	return writer.EnsureDir(ctx, dir)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
