package markdown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-folio/internal/domain"
)

func post(title, date string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(fmt.Sprintf("---\ntitle: %s\ndate: %s\n---\nBody of %s\n", title, date, title))}
}

func TestLoader_LoadAllOrdersByPath(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/c.md":        post("C", "2022-01-03"),
		"posts/a.md":        post("A", "2022-01-01"),
		"posts/nested/b.md": post("B", "2022-01-02"),
		"about.md":          {Data: []byte("---\ntitle: About\n---\nHi\n")},
		"notes.txt":         {Data: []byte("ignored")},
		"drafts/x.md":       post("X", "2022-01-04"),
	}
	loader := NewLoader(fsys, LoaderConfig{Exclude: []string{"drafts/**"}, Workers: 3})

	sources, err := loader.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	want := []string{"about.md", "posts/a.md", "posts/c.md", "posts/nested/b.md"}
	if len(sources) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(sources))
	}
	for idx, src := range sources {
		if src.Path != want[idx] {
			t.Fatalf("source %d: expected %s, got %s", idx, want[idx], src.Path)
		}
		if len(src.Checksum) != 32 {
			t.Fatalf("expected sha256 checksum for %s", src.Path)
		}
	}
}

func TestLoader_LoadAllReportsLowestFailingPath(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": post("A", "2022-01-01"),
		"b.md": {Data: []byte("no metadata")},
		"c.md": {Data: []byte("also no metadata")},
	}
	loader := NewLoader(fsys, LoaderConfig{Workers: 4})

	for i := 0; i < 5; i++ {
		_, err := loader.LoadAll(context.Background())
		if !errors.Is(err, domain.ErrMalformedDocument) {
			t.Fatalf("expected ErrMalformedDocument, got %v", err)
		}
		if want := "b.md"; !strings.Contains(err.Error(), want) {
			t.Fatalf("expected failure for %s, got %v", want, err)
		}
	}
}

func TestLoader_SequenceIsRestartable(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": post("A", "2022-01-01"),
		"b.md": post("B", "2022-01-02"),
	}
	loader := NewLoader(fsys, LoaderConfig{})
	seq := loader.Sequence(context.Background())

	for pass := 0; pass < 2; pass++ {
		var titles []string
		for src, err := range seq {
			if err != nil {
				t.Fatalf("pass %d: %v", pass, err)
			}
			titles = append(titles, src.Metadata.Title)
		}
		if len(titles) != 2 || titles[0] != "A" || titles[1] != "B" {
			t.Fatalf("pass %d: unexpected titles %v", pass, titles)
		}
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	loader := NewLoader(fstest.MapFS{"a.md": post("A", "2022-01-01")}, LoaderConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := loader.LoadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
