// Package metrics exposes Prometheus collectors for pipeline builds, artifact
// generation and the read API.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-folio/internal/domain"
)

const namespace = "folio"

// Build Prometheus metrics.
var (
	BuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Total number of ingestion passes",
		},
		[]string{"status"},
	)

	BuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Ingestion pass duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	BuildFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_failures_total",
			Help:      "Failed ingestion passes by error kind",
		},
		[]string{"reason"},
	)

	PublishedDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_documents",
			Help:      "Documents in the currently published snapshot",
		},
		[]string{"kind"},
	)

	PublishedTags = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_tags",
			Help:      "Distinct tags in the currently published snapshot",
		},
	)

	ArtifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Generated artifacts by category and outcome",
		},
		[]string{"category", "result"}, // "written" / "skipped"
	)
)

func init() {
	prometheus.MustRegister(
		BuildsTotal,
		BuildDuration,
		BuildFailuresTotal,
		PublishedDocuments,
		PublishedTags,
		ArtifactsTotal,
	)
}

// BuildStats is the subset of snapshot statistics the gauges track.
type BuildStats struct {
	Posts int
	Pages int
	Tags  int
}

// ObserveBuild records the outcome of one ingestion pass. Gauges only move
// on success since a failed pass leaves the previous snapshot published.
func ObserveBuild(duration time.Duration, stats BuildStats, err error) {
	BuildDuration.Observe(duration.Seconds())
	if err != nil {
		BuildsTotal.WithLabelValues("error").Inc()
		BuildFailuresTotal.WithLabelValues(FailureReason(err)).Inc()
		return
	}
	BuildsTotal.WithLabelValues("ok").Inc()
	PublishedDocuments.WithLabelValues(string(domain.LayoutPost)).Set(float64(stats.Posts))
	PublishedDocuments.WithLabelValues(string(domain.LayoutPage)).Set(float64(stats.Pages))
	PublishedTags.Set(float64(stats.Tags))
}

// ObserveArtifact counts one generated artifact.
func ObserveArtifact(category string, skipped bool) {
	result := "written"
	if skipped {
		result = "skipped"
	}
	ArtifactsTotal.WithLabelValues(category, result).Inc()
}

// FailureReason maps a build error onto a bounded label value.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrMalformedDocument):
		return "malformed_document"
	case errors.Is(err, domain.ErrMultipleMarkers):
		return "multiple_markers"
	case errors.Is(err, domain.ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, domain.ErrPermalinkCollision):
		return "permalink_collision"
	default:
		return "other"
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
