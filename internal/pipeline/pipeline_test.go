package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/domain"
)

func file(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body), ModTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func contentFS() fstest.MapFS {
	return fstest.MapFS{
		"posts/first.md":  file("---\ntitle: First\nslug: first\ndate: 2022-10-08\ntags: [Go]\n---\nIntro\n<!--more-->\nRest\n"),
		"posts/second.md": file("---\ntitle: Second\nslug: second\ndate: 2022-10-10\ntags: [go, notes]\n---\nBody\n"),
		"about.md":        file("---\ntitle: About\npermalink: /about/\n---\nHi\n"),
		"notes.txt":       file("not markdown"),
	}
}

func fixedClock() func() time.Time {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestService_Build(t *testing.T) {
	svc := NewService(contentFS(), Config{}, WithClock(fixedClock()), WithoutMetrics())

	snap, err := svc.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	docs := snap.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, "posts/second", docs[0].ID())
	assert.Equal(t, "posts/first", docs[1].ID())
	assert.Equal(t, "about", docs[2].ID())

	assert.Equal(t, "/2022/10/10/second", docs[0].Permalink())
	assert.Equal(t, "/about/", docs[2].Permalink())
	assert.Equal(t, "Intro", docs[1].Excerpt())

	assert.Equal(t, []string{"posts/second", "posts/first"}, snap.Tags().IDs("GO"))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), snap.BuiltAt())
}

func TestService_BuildAbortsOnFirstError(t *testing.T) {
	cases := map[string]struct {
		files  fstest.MapFS
		target error
	}{
		"duplicate id": {
			files: fstest.MapFS{
				"posts/a.md":  file("---\ntitle: A\ndate: 2022-01-01\n---\n"),
				"posts/_a.md": file("---\ntitle: B\ndate: 2022-01-02\nid: posts/a\n---\n"),
			},
			target: domain.ErrDuplicateID,
		},
		"permalink collision": {
			files: fstest.MapFS{
				"a.md": file("---\ntitle: Same\n---\n"),
				"b.md": file("---\ntitle: Other\nslug: same\n---\n"),
			},
			target: domain.ErrPermalinkCollision,
		},
		"malformed": {
			files: fstest.MapFS{
				"ok.md":     file("---\ntitle: Fine\n---\n"),
				"broken.md": file("no metadata here\n"),
			},
			target: domain.ErrMalformedDocument,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(tc.files, Config{}, WithoutMetrics())
			snap, err := svc.Build(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.target), "unexpected error %v", err)
			assert.Nil(t, snap)
		})
	}
}

func TestService_RequiresContent(t *testing.T) {
	svc := NewService(nil, Config{}, WithoutMetrics())
	_, err := svc.Build(context.Background())
	assert.ErrorIs(t, err, errContentRequired)
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(contentFS(), Config{}, WithoutMetrics())
	_, err := svc.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_FailedRebuildKeepsPreviousSnapshot(t *testing.T) {
	files := contentFS()
	publisher := NewPublisher(NewService(files, Config{}, WithoutMetrics()))

	assert.False(t, publisher.Ready())
	assert.Nil(t, publisher.Current())
	assert.Empty(t, publisher.Listing().Chronological(domain.LayoutPost))

	first, err := publisher.Rebuild(context.Background())
	require.NoError(t, err)
	require.Same(t, first, publisher.Current())

	files["posts/third.md"] = file("---\ntitle: Third\ndate: 2022-11-01\n---\nA\n<!--more-->\nB\n<!--more-->\n")
	_, err = publisher.Rebuild(context.Background())
	require.ErrorIs(t, err, domain.ErrMultipleMarkers)
	assert.Same(t, first, publisher.Current())
	assert.Len(t, publisher.Listing().Chronological(domain.LayoutPost), 2)

	delete(files, "posts/third.md")
	files["posts/fourth.md"] = file("---\ntitle: Fourth\ndate: 2022-12-01\n---\nD\n")
	second, err := publisher.Rebuild(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, "posts/fourth", publisher.Listing().Chronological(domain.LayoutPost)[0].ID())
}

type stubBuilder struct {
	snap *collection.Snapshot
	err  error
}

func (s stubBuilder) Build(context.Context) (*collection.Snapshot, error) {
	return s.snap, s.err
}

func TestPublisher_NotifiesListeners(t *testing.T) {
	snap, err := collection.NewSnapshot(nil, time.Now())
	require.NoError(t, err)

	var got []*collection.Snapshot
	publisher := NewPublisher(stubBuilder{snap: snap}, OnPublish(func(_ context.Context, s *collection.Snapshot) {
		got = append(got, s)
	}))

	_, err = publisher.Rebuild(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Same(t, snap, got[0])

	failing := NewPublisher(stubBuilder{err: errors.New("boom")}, OnPublish(func(context.Context, *collection.Snapshot) {
		t.Fatal("listener must not run for failed rebuilds")
	}))
	_, err = failing.Rebuild(context.Background())
	assert.Error(t, err)
}

func TestPublisher_ConcurrentReaders(t *testing.T) {
	publisher := NewPublisher(NewService(contentFS(), Config{}, WithoutMetrics()))
	_, err := publisher.Rebuild(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				snap := publisher.Current()
				if snap == nil || snap.Len() != 3 {
					t.Errorf("reader saw an incomplete snapshot")
					return
				}
			}
		}()
	}
	for range 3 {
		_, err := publisher.Rebuild(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	var calls [][]string
	w, err := NewWatcher(WatchConfig{Root: root, Debounce: time.Second}, func(_ context.Context, changed []string) error {
		calls = append(calls, changed)
		return nil
	})
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.handleEvent(nil, fsnotify.Event{Name: filepath.Join(root, "posts", "b.md"), Op: fsnotify.Write})
	w.handleEvent(nil, fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Create})
	w.handleEvent(nil, fsnotify.Event{Name: filepath.Join(root, "image.png"), Op: fsnotify.Write})
	w.handleEvent(nil, fsnotify.Event{Name: filepath.Join(root, ".git", "x.md"), Op: fsnotify.Write})
	w.handleEvent(nil, fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Chmod})

	now = now.Add(500 * time.Millisecond)
	require.NoError(t, w.flush(context.Background()))
	assert.Empty(t, calls, "burst has not settled yet")

	now = now.Add(time.Second)
	require.NoError(t, w.flush(context.Background()))
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"a.md", "posts/b.md"}, calls[0])

	require.NoError(t, w.flush(context.Background()))
	assert.Len(t, calls, 1, "nothing pending after a flush")
}

func TestWatcher_RequiresRoot(t *testing.T) {
	_, err := NewWatcher(WatchConfig{}, nil)
	assert.ErrorIs(t, err, errWatchRootRequired)
}

func TestWatcher_RunTriggersRebuild(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "posts"), 0o755))
	seed := "---\ntitle: Seed\ndate: 2022-01-01\n---\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "posts", "seed.md"), []byte(seed), 0o644))

	rebuilt := make(chan struct{}, 1)
	publisher := NewPublisher(NewService(os.DirFS(root), Config{}, WithoutMetrics()), OnPublish(func(context.Context, *collection.Snapshot) {
		select {
		case rebuilt <- struct{}{}:
		default:
		}
	}))

	w, err := NewPublisherWatcher(WatchConfig{Root: root, Debounce: 50 * time.Millisecond}, publisher)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register its watches
	time.Sleep(100 * time.Millisecond)
	next := "---\ntitle: Next\ndate: 2022-02-01\n---\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "posts", "next.md"), []byte(next), 0o644))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not trigger a rebuild")
	}
	assert.Equal(t, 2, publisher.Current().Len())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
