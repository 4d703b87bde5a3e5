package collection

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-folio/internal/domain"
	"github.com/goliatone/go-folio/internal/markdown"
)

func post(path, title string, date time.Time, body string) *markdown.Source {
	return &markdown.Source{
		Path: path,
		Metadata: domain.Metadata{
			Title:       title,
			Layout:      domain.LayoutPost,
			PublishedAt: date,
		},
		Body: []byte(body),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeID(t *testing.T) {
	cases := []struct{ input, want string }{
		{"posts/hello.md", "posts/hello"},
		{"Posts\\2022_10_08 Hello.md", "posts/2022-10-08-hello"},
		{"./about.md", "about"},
		{"notes//deep///File__Name  X.md", "notes/deep/file-name-x"},
		{"drafts/ - trailing - .md", "drafts/trailing"},
		{"archive/v1.2/readme.markdown", "archive/v1.2/readme"},
		{"/leading/slash.md", "leading/slash"},
	}
	for _, tc := range cases {
		if got := NormalizeID(tc.input); got != tc.want {
			t.Fatalf("NormalizeID(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestBuilder_OrdersNewestFirst(t *testing.T) {
	sources := markdown.Sources{
		post("posts/older.md", "Older", day(2022, 10, 8), "older body"),
		post("posts/newer.md", "Newer", day(2022, 10, 10), "newer body"),
	}

	docs, err := NewBuilder(Config{}).Build(context.Background(), sources.All())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != "posts/newer" || docs[1].ID() != "posts/older" {
		t.Fatalf("unexpected order: %v", ids(docs))
	}
}

func TestBuilder_DuplicateIDPublishesNothing(t *testing.T) {
	explicit := post("posts/b.md", "B", day(2022, 1, 2), "b")
	explicit.Metadata.ID = "posts/a"
	sources := markdown.Sources{
		post("posts/a.md", "A", day(2022, 1, 1), "a"),
		explicit,
	}

	docs, err := NewBuilder(Config{}).Build(context.Background(), sources.All())
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if docs != nil {
		t.Fatalf("expected no documents on failure, got %d", len(docs))
	}
	if !strings.Contains(err.Error(), "posts/a.md") || !strings.Contains(err.Error(), "posts/b.md") {
		t.Fatalf("error should name both sources: %v", err)
	}
}

func TestBuilder_NormalizedPathsCollide(t *testing.T) {
	sources := markdown.Sources{
		post("posts/Hello World.md", "One", day(2022, 1, 1), "a"),
		post("posts/hello_world.md", "Two", day(2022, 1, 2), "b"),
	}
	_, err := NewBuilder(Config{}).Build(context.Background(), sources.All())
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestBuilder_Excerpts(t *testing.T) {
	sources := markdown.Sources{
		post("posts/marked.md", "Marked", day(2022, 3, 1), "First *paragraph*.\n\n<!--more-->\nRest of the post.\n"),
		post("posts/plain.md", "Plain", day(2022, 3, 2), "Only paragraph.\n"),
	}

	docs, err := NewBuilder(Config{}).Build(context.Background(), sources.All())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	plain, marked := docs[0], docs[1]

	if plain.Excerpt() != plain.Body() || plain.HasExcerpt() {
		t.Fatalf("excerpt without marker must equal body: %q vs %q", plain.Excerpt(), plain.Body())
	}
	if marked.Excerpt() != "First *paragraph*." {
		t.Fatalf("unexpected excerpt %q", marked.Excerpt())
	}
	if strings.Contains(marked.Body(), "<!--more-->") {
		t.Fatalf("marker should be removed from body: %q", marked.Body())
	}
	if !strings.Contains(marked.ExcerptHTML(), "<em>paragraph</em>") || strings.Contains(marked.ExcerptHTML(), "Rest") {
		t.Fatalf("unexpected excerpt html %q", marked.ExcerptHTML())
	}
	if !strings.Contains(marked.BodyHTML(), "Rest of the post.") {
		t.Fatalf("body html should carry the full post: %q", marked.BodyHTML())
	}
	if marked.Summary() != "First paragraph." {
		t.Fatalf("unexpected summary %q", marked.Summary())
	}
}

func TestBuilder_ExplicitSummaryWins(t *testing.T) {
	src := post("posts/s.md", "S", day(2022, 3, 1), "Body text")
	src.Metadata.Summary = "Hand written"

	docs, err := NewBuilder(Config{}).Build(context.Background(), markdown.Sources{src}.All())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if docs[0].Summary() != "Hand written" {
		t.Fatalf("unexpected summary %q", docs[0].Summary())
	}
}

func TestBuilder_MultipleMarkersAbort(t *testing.T) {
	sources := markdown.Sources{
		post("posts/ok.md", "Ok", day(2022, 3, 1), "fine"),
		post("posts/bad.md", "Bad", day(2022, 3, 2), "a\n<!--more-->\nb\n<!--more-->\nc"),
	}
	docs, err := NewBuilder(Config{}).Build(context.Background(), sources.All())
	if !errors.Is(err, domain.ErrMultipleMarkers) || docs != nil {
		t.Fatalf("expected ErrMultipleMarkers and no documents, got %v (%d docs)", err, len(docs))
	}
}

func TestBuilder_Drafts(t *testing.T) {
	draft := post("posts/draft.md", "Draft", day(2022, 5, 1), "wip")
	draft.Metadata.Draft = true
	sources := markdown.Sources{draft, post("posts/live.md", "Live", day(2022, 4, 1), "done")}

	docs, err := NewBuilder(Config{}).Build(context.Background(), sources.All())
	if err != nil || len(docs) != 1 || docs[0].ID() != "posts/live" {
		t.Fatalf("draft should be skipped: %v %v", ids(docs), err)
	}

	docs, err = NewBuilder(Config{IncludeDrafts: true}).Build(context.Background(), sources.All())
	if err != nil || len(docs) != 2 || !docs[0].Draft() {
		t.Fatalf("draft should be included: %v %v", ids(docs), err)
	}
}

func TestBuilder_SequenceErrorAborts(t *testing.T) {
	boom := errors.New("read failed")
	var seq iter.Seq2[*markdown.Source, error] = func(yield func(*markdown.Source, error) bool) {
		if !yield(post("posts/a.md", "A", day(2022, 1, 1), "a"), nil) {
			return
		}
		yield(nil, boom)
	}

	docs, err := NewBuilder(Config{}).Build(context.Background(), seq)
	if !errors.Is(err, boom) || docs != nil {
		t.Fatalf("expected sequence error and no documents, got %v", err)
	}
}

func TestBuilder_RestartableSequenceGivesSameResult(t *testing.T) {
	sources := markdown.Sources{
		post("posts/a.md", "A", day(2022, 1, 1), "a"),
		post("posts/b.md", "B", day(2022, 1, 1), "b"),
	}
	builder := NewBuilder(Config{})
	first, err := builder.Build(context.Background(), sources.All())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := builder.Build(context.Background(), sources.All())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Join(ids(first), ",") != "posts/a,posts/b" || strings.Join(ids(second), ",") != "posts/a,posts/b" {
		t.Fatalf("tie should break by id on every pass: %v / %v", ids(first), ids(second))
	}
	if first[0] == second[0] {
		t.Fatalf("each pass must build fresh documents")
	}
}

func ids(docs []*domain.Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ID())
	}
	return out
}
