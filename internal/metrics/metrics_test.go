package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-folio/internal/domain"
)

func TestObserveBuild_Success(t *testing.T) {
	before := testutil.ToFloat64(BuildsTotal.WithLabelValues("ok"))

	ObserveBuild(25*time.Millisecond, BuildStats{Posts: 25, Pages: 3, Tags: 7}, nil)

	if got := testutil.ToFloat64(BuildsTotal.WithLabelValues("ok")); got != before+1 {
		t.Fatalf("expected builds_total{status=ok} to grow by one, got %f -> %f", before, got)
	}
	if got := testutil.ToFloat64(PublishedDocuments.WithLabelValues("post")); got != 25 {
		t.Fatalf("expected 25 published posts, got %f", got)
	}
	if got := testutil.ToFloat64(PublishedTags); got != 7 {
		t.Fatalf("expected 7 published tags, got %f", got)
	}
}

func TestObserveBuild_FailureKeepsGauges(t *testing.T) {
	ObserveBuild(time.Millisecond, BuildStats{Posts: 4, Pages: 1, Tags: 2}, nil)
	before := testutil.ToFloat64(BuildFailuresTotal.WithLabelValues("duplicate_id"))

	err := domain.DuplicateID("posts/a", "posts/a.md", "posts/A.md")
	ObserveBuild(time.Millisecond, BuildStats{}, err)

	if got := testutil.ToFloat64(BuildFailuresTotal.WithLabelValues("duplicate_id")); got != before+1 {
		t.Fatalf("expected failure to be counted, got %f -> %f", before, got)
	}
	if got := testutil.ToFloat64(PublishedDocuments.WithLabelValues("post")); got != 4 {
		t.Fatalf("failed build must not reset gauges, got %f", got)
	}
}

func TestFailureReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.MalformedDocument("a.md", "bad"), "malformed_document"},
		{domain.MultipleMarkers("a.md", 2), "multiple_markers"},
		{domain.PermalinkCollision("/x", "a", "b"), "permalink_collision"},
		{fmt.Errorf("wrapped: %w", domain.DuplicateID("a", "a.md", "A.md")), "duplicate_id"},
		{errors.New("disk on fire"), "other"},
	}
	for _, tc := range cases {
		if got := FailureReason(tc.err); got != tc.want {
			t.Errorf("FailureReason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserveArtifact(t *testing.T) {
	before := testutil.ToFloat64(ArtifactsTotal.WithLabelValues("feed", "skipped"))
	ObserveArtifact("feed", true)
	if got := testutil.ToFloat64(ArtifactsTotal.WithLabelValues("feed", "skipped")); got != before+1 {
		t.Fatalf("expected skipped artifact to be counted, got %f -> %f", before, got)
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/tags/{tag}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/tags/golang", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/tags/{tag}", "404")); got < 1 {
		t.Fatalf("expected request to be recorded under the route pattern, got %f", got)
	}
}

func TestHandler_ExposesFolioMetrics(t *testing.T) {
	ObserveBuild(time.Millisecond, BuildStats{Posts: 1}, nil)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if !strings.Contains(rr.Body.String(), "folio_builds_total") {
		t.Fatalf("expected folio_builds_total in exposition output")
	}
}
