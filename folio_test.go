package folio_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-folio"
	"github.com/goliatone/go-folio/internal/logging/console"
)

func siteContent() fstest.MapFS {
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	file := func(body string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(body), ModTime: mod}
	}
	return fstest.MapFS{
		"posts/hello.md":  file("---\ntitle: Hello\nslug: hello\ndate: 2022-10-08\ntags: [Go, Notes]\n---\nHello there.\n<!--more-->\nMore.\n"),
		"posts/second.md": file("---\ntitle: Second\nslug: second\ndate: 2022-10-10\ntags: [go]\n---\nSecond post.\n"),
		"posts/draft.md":  file("---\ntitle: Draft\ndate: 2022-10-11\ndraft: true\n---\nNot yet.\n"),
		"about.md":        file("---\ntitle: About\npermalink: /about/\n---\nAbout me.\n"),
	}
}

func testConfig(t *testing.T) folio.Config {
	t.Helper()
	cfg := folio.DefaultConfig()
	cfg.Generator.OutputDir = t.TempDir()
	cfg.Generator.BaseURL = "https://example.com"
	cfg.Generator.GenerateTagFeeds = true
	return cfg
}

func newSite(t *testing.T, cfg folio.Config, opts ...folio.Option) *folio.Site {
	t.Helper()
	quiet := console.NewProvider(console.Options{Writer: io.Discard})
	base := []folio.Option{
		folio.WithContentFS(siteContent()),
		folio.WithLoggerProvider(quiet),
		folio.WithoutMetrics(),
	}
	site, err := folio.New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return site
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := folio.DefaultConfig()
	cfg.Content.Dir = ""

	_, err := folio.New(cfg)
	require.ErrorIs(t, err, folio.ErrContentDirRequired)
}

func TestSite_BuildPublishesSnapshot(t *testing.T) {
	site := newSite(t, testConfig(t))
	require.Nil(t, site.Current())

	snap, err := site.Build(context.Background())
	require.NoError(t, err)
	require.Same(t, snap, site.Current())

	docs := snap.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, "posts/second", docs[0].ID())
	assert.Equal(t, "posts/hello", docs[1].ID())
	assert.Equal(t, "about", docs[2].ID())

	page, err := site.Listing().Page(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)

	_, err = site.Listing().Page(0, 10)
	require.ErrorIs(t, err, folio.ErrInvalidPage)
}

func TestSite_BuildSiteWritesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	site := newSite(t, cfg)

	var envelope folio.ResultEnvelope
	err := site.BuildSite(context.Background(), folio.BuildSiteCommand{
		ResultCallback: func(env folio.ResultEnvelope) { envelope = env },
	})
	require.NoError(t, err)
	require.NotNil(t, envelope.Result)
	assert.Positive(t, envelope.Result.Written)
	require.Same(t, envelope.Snapshot, site.Current())

	for _, name := range []string{"feed.xml", "feed.atom.xml", "sitemap.xml", "index.json", "tags.json"} {
		_, err := os.Stat(filepath.Join(cfg.Generator.OutputDir, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(cfg.Generator.OutputDir, "tags", "go", "feed.xml"))
	assert.NoError(t, err)
}

func TestSite_BuildSiteIncludeDraftsOverride(t *testing.T) {
	site := newSite(t, testConfig(t))

	_, err := site.Build(context.Background())
	require.NoError(t, err)
	published := site.Current()

	var envelope folio.ResultEnvelope
	err = site.BuildSite(context.Background(), folio.BuildSiteCommand{
		IncludeDrafts:  true,
		DryRun:         true,
		ResultCallback: func(e folio.ResultEnvelope) { envelope = e },
	})
	require.NoError(t, err)
	_, ok := envelope.Snapshot.Document("posts/draft")
	assert.True(t, ok, "the override pass should see drafts")

	assert.Same(t, published, site.Current(), "a pass with drafts must not replace the published snapshot")
	_, ok = site.Current().Document("posts/draft")
	assert.False(t, ok)
}

func TestSite_BuildSiteWithoutGenerator(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generator.Enabled = false
	site := newSite(t, cfg)

	var envelope folio.ResultEnvelope
	err := site.BuildSite(context.Background(), folio.BuildSiteCommand{
		ResultCallback: func(env folio.ResultEnvelope) { envelope = env },
	})
	require.NoError(t, err)
	assert.Nil(t, envelope.Result)
	assert.NotNil(t, site.Current())

	entries, err := os.ReadDir(cfg.Generator.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSite_RouterServesPublishedSnapshot(t *testing.T) {
	site := newSite(t, testConfig(t))
	server := httptest.NewServer(site.Router())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/posts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	_, err = site.Build(context.Background())
	require.NoError(t, err)

	resp, err = http.Get(server.URL + "/tags/GO")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Items, 2)
}

func TestSite_MetadataSchemaRejectsDocuments(t *testing.T) {
	dir := t.TempDir()
	schema := `{"type":"object","required":["author"]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.schema.json"), []byte(schema), 0o644))

	cfg := testConfig(t)
	cfg.Content.SchemaPath = filepath.Join(dir, "meta.schema.json")
	site := newSite(t, cfg)

	_, err := site.Build(context.Background())
	require.ErrorIs(t, err, folio.ErrMalformedDocument)
	assert.Nil(t, site.Current())
}

func TestNewLoggerProvider(t *testing.T) {
	provider, err := folio.NewLoggerProvider(folio.LoggingConfig{Provider: "console", Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, provider.GetLogger("folio.test"))

	_, err = folio.NewLoggerProvider(folio.LoggingConfig{Provider: "syslog"})
	require.ErrorIs(t, err, folio.ErrLoggingProviderUnknown)
}
