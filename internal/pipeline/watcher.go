package pipeline

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

// DefaultDebounce is the quiet period a change burst must settle for before a
// rebuild is triggered.
const DefaultDebounce = 300 * time.Millisecond

var errWatchRootRequired = errors.New("pipeline: watch root is required")

// WatchConfig configures content watching.
type WatchConfig struct {
	// Root is the content directory on disk.
	Root string
	// Debounce is the quiet period before a rebuild.
	Debounce time.Duration
	// Extensions lists watched file extensions. Defaults to ".md".
	Extensions []string
	// ExcludeDirs lists directory names never watched.
	ExcludeDirs []string
}

// ChangeFunc runs once per settled burst of changes with the relative paths
// that changed.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher turns filesystem events under a content root into debounced
// rebuilds.
type Watcher struct {
	root       string
	debounce   time.Duration
	extensions map[string]bool
	excludes   map[string]bool
	onChange   ChangeFunc
	logger     interfaces.Logger
	now        func() time.Time

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
	lastEvent time.Time
}

// WatcherOption customises a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(logger interfaces.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher constructs a Watcher calling onChange after each burst.
func NewWatcher(cfg WatchConfig, onChange ChangeFunc, opts ...WatcherOption) (*Watcher, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, errWatchRootRequired
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	extensions := map[string]bool{}
	if len(cfg.Extensions) == 0 {
		extensions[".md"] = true
	}
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}

	excludes := map[string]bool{"node_modules": true}
	for _, dir := range cfg.ExcludeDirs {
		excludes[dir] = true
	}

	w := &Watcher{
		root:       filepath.Clean(root),
		debounce:   debounce,
		extensions: extensions,
		excludes:   excludes,
		onChange:   onChange,
		logger:     logging.NoOp(),
		now:        time.Now,
		pending:    map[string]fsnotify.Op{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// NewPublisherWatcher wires a Watcher that rebuilds publisher on every burst.
// Failed rebuilds are logged and the watcher keeps running.
func NewPublisherWatcher(cfg WatchConfig, publisher *Publisher, opts ...WatcherOption) (*Watcher, error) {
	var w *Watcher
	onChange := func(ctx context.Context, changed []string) error {
		if _, err := publisher.Rebuild(ctx); err != nil {
			w.logger.Error("pipeline.watch.rebuild_failed", "error", err, "changed", changed)
		}
		return nil
	}
	w, err := NewWatcher(cfg, onChange, opts...)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Run watches until ctx is done. It returns nil on cancellation, or the first
// error returned by the change callback.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addWatchesRecursive(fsw, w.root); err != nil {
		return err
	}
	w.logger.Info("pipeline.watch.started", "root", w.root, "debounce", w.debounce)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("pipeline.watch.stopped", "root", w.root)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("pipeline.watch.error", "error", err)

		case <-ticker.C:
			if err := w.flush(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) tick() time.Duration {
	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return tick
}

func (w *Watcher) addWatchesRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && w.skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("pipeline.watch.add_failed", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) skipDir(base string) bool {
	return w.excludes[base] || strings.HasPrefix(base, ".")
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(filepath.Base(event.Name)) {
				if err := w.addWatchesRecursive(fsw, event.Name); err != nil {
					w.logger.Warn("pipeline.watch.add_failed", "path", event.Name, "error", err)
				}
				// files may land before the watch is in place
				w.record(event.Name, event.Op)
			}
			return
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.watched(event.Name) {
		return
	}
	w.record(event.Name, event.Op)
}

func (w *Watcher) watched(name string) bool {
	if !w.extensions[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return false
	}
	dirs := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for _, dir := range dirs {
		if dir != "." && w.skipDir(dir) {
			return false
		}
	}
	return true
}

func (w *Watcher) record(name string, op fsnotify.Op) {
	w.pendingMu.Lock()
	w.pending[name] |= op
	w.lastEvent = w.now()
	w.pendingMu.Unlock()

	w.logger.Debug("pipeline.watch.change", "path", name, "op", op.String())
}

// flush fires the callback once the burst has been quiet for the debounce
// window.
func (w *Watcher) flush(ctx context.Context) error {
	w.pendingMu.Lock()
	if len(w.pending) == 0 || w.now().Sub(w.lastEvent) < w.debounce {
		w.pendingMu.Unlock()
		return nil
	}
	batch := w.pending
	w.pending = map[string]fsnotify.Op{}
	w.pendingMu.Unlock()

	changed := make([]string, 0, len(batch))
	for _, name := range slices.Sorted(maps.Keys(batch)) {
		rel, err := filepath.Rel(w.root, name)
		if err != nil {
			rel = name
		}
		changed = append(changed, filepath.ToSlash(rel))
	}

	w.logger.Info("pipeline.watch.rebuild", "changed", len(changed))
	if w.onChange == nil {
		return nil
	}
	return w.onChange(ctx, changed)
}
