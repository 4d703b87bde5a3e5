package markdown

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-folio/internal/domain"
)

// DefaultPattern matches Markdown sources at any depth.
const DefaultPattern = "**/*.md"

// LoaderConfig configures how sources are discovered within a filesystem.
type LoaderConfig struct {
	// Pattern limits discovered files to those matching the supplied
	// doublestar glob (defaults to "**/*.md").
	Pattern string
	// Exclude lists doublestar globs for files to ignore.
	Exclude []string
	// Workers bounds parallel reads. Zero uses GOMAXPROCS.
	Workers int
	// Parser decodes metadata; defaults to a UTC parser without schema.
	Parser *Parser
}

// Source is one parsed document before it enters the collection.
type Source struct {
	Path     string
	Metadata domain.Metadata
	Body     []byte
	Checksum []byte
	ModTime  time.Time
}

// Sources is a finite, path-ordered set of parsed sources.
type Sources []*Source

// All returns a restartable sequence over the sources.
func (s Sources) All() iter.Seq2[*Source, error] {
	return func(yield func(*Source, error) bool) {
		for _, src := range s {
			if !yield(src, nil) {
				return
			}
		}
	}
}

// Loader turns filesystem paths into parsed sources.
type Loader struct {
	fs      fs.FS
	pattern string
	exclude []string
	workers int
	parser  *Parser
}

// NewLoader constructs a Loader using the provided filesystem and configuration.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = DefaultPattern
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	parser := cfg.Parser
	if parser == nil {
		parser = NewParser(ParserConfig{})
	}
	return &Loader{
		fs:      filesystem,
		pattern: pattern,
		exclude: append([]string(nil), cfg.Exclude...),
		workers: workers,
		parser:  parser,
	}
}

// Discover lists matching file paths in lexical order. Traversal order of the
// underlying filesystem never leaks into the result.
func (l *Loader) Discover(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(l.fs, l.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("markdown loader glob %s: %w", l.pattern, err)
	}
	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		if l.excluded(match) {
			continue
		}
		paths = append(paths, match)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadFile reads and parses a single source.
func (l *Loader) LoadFile(ctx context.Context, name string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/"))

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}
	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", rel, err)
	}

	meta, body, err := l.parser.Parse(rel, data)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)

	return &Source{
		Path:     rel,
		Metadata: meta,
		Body:     body,
		Checksum: sum[:],
		ModTime:  info.ModTime(),
	}, nil
}

// LoadAll reads every discovered source in parallel and returns them ordered
// by path. Reads are not cut short by a sibling failure: every file is tried
// and the error for the lowest path is returned, so repeated runs report the
// same failure.
func (l *Loader) LoadAll(ctx context.Context) (Sources, error) {
	paths, err := l.Discover(ctx)
	if err != nil {
		return nil, err
	}

	results := make(Sources, len(paths))
	errs := make([]error, len(paths))

	var group errgroup.Group
	group.SetLimit(l.workers)
	for idx, name := range paths {
		group.Go(func() error {
			src, err := l.LoadFile(ctx, name)
			if err != nil {
				errs[idx] = err
				return err
			}
			results[idx] = src
			return nil
		})
	}
	waitErr := group.Wait()

	for _, err := range errs {
		if err != nil && !isContextErr(err) {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return results, nil
}

// Sequence returns a lazy sequence that reads sources one by one in path
// order. Each iteration rediscovers the tree, so the sequence is restartable.
func (l *Loader) Sequence(ctx context.Context) iter.Seq2[*Source, error] {
	return func(yield func(*Source, error) bool) {
		paths, err := l.Discover(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, name := range paths {
			src, err := l.LoadFile(ctx, name)
			if !yield(src, err) || err != nil {
				return
			}
		}
	}
}

func (l *Loader) excluded(name string) bool {
	for _, pattern := range l.exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
