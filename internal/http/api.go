package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/domain"
	"github.com/goliatone/go-folio/internal/listing"
	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/internal/metrics"
	"github.com/goliatone/go-folio/internal/tags"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// SnapshotSource hands out the currently published snapshot and its listing.
// *pipeline.Publisher satisfies it.
type SnapshotSource interface {
	Current() *collection.Snapshot
	Listing() *listing.Listing
}

// API serves the read endpoints over a SnapshotSource. Every request reads
// one snapshot, so a concurrent publish never mixes two collections in a
// response.
type API struct {
	source      SnapshotSource
	logger      interfaces.Logger
	basePath    string
	pageSize    int
	withMetrics bool
}

// Option mutates the API configuration.
type Option func(*API)

// WithBasePath mounts the routes under path.
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.Trim(strings.TrimSpace(path), "/"); trimmed != "" {
			api.basePath = "/" + trimmed
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// WithDefaultPageSize sets the size used when a request omits ?size=.
func WithDefaultPageSize(size int) Option {
	return func(api *API) {
		if size > 0 {
			api.pageSize = min(size, maxPageSize)
		}
	}
}

// WithoutMetrics drops the /metrics route and the request instrumentation.
func WithoutMetrics() Option {
	return func(api *API) {
		api.withMetrics = false
	}
}

// NewAPI constructs an API instance.
func NewAPI(source SnapshotSource, opts ...Option) *API {
	api := &API{
		source:      source,
		logger:      logging.NoOp(),
		pageSize:    defaultPageSize,
		withMetrics: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// Router builds the chi router with every read route registered.
func (api *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(api.requestLogger)
	if api.withMetrics {
		r.Use(metrics.Middleware())
	}

	mount := func(r chi.Router) {
		r.Get("/healthz", api.handleHealth)
		if api.withMetrics {
			r.Method(http.MethodGet, "/metrics", metrics.Handler())
		}
		r.Get("/posts", api.handlePosts)
		r.Get("/pages", api.handlePages)
		r.Get("/archive", api.handleArchive)
		r.Get("/tags", api.handleTags)
		r.Get("/tags/{tag}", api.handleTag)
		r.Get("/documents/*", api.handleDocument)
		r.Get("/resolve", api.handleResolve)
	}
	if api.basePath == "" {
		mount(r)
	} else {
		r.Route(api.basePath, mount)
	}
	return r
}

func (api *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		api.logger.Debug("http.request.completed",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"latency", time.Since(start),
		)
	})
}

type healthResponse struct {
	Status    string           `json:"status"`
	Documents int              `json:"documents"`
	Stats     collection.Stats `json:"stats"`
}

func (api *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var snap *collection.Snapshot
	if api.source != nil {
		snap = api.source.Current()
	}
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Documents: snap.Len(),
		Stats:     snap.Stats(),
	})
}

// current returns the listing for one request, or false after writing 503
// when nothing has been published.
func (api *API) current(w http.ResponseWriter) (*listing.Listing, bool) {
	if api.source == nil {
		writeError(w, errNotReady)
		return nil, false
	}
	view := api.source.Listing()
	if view == nil || view.Snapshot() == nil {
		writeError(w, errNotReady)
		return nil, false
	}
	return view, true
}

func (api *API) handlePosts(w http.ResponseWriter, r *http.Request) {
	view, ok := api.current(w)
	if !ok {
		return
	}
	number, okNumber := queryInt(r, "page", 1)
	size, okSize := queryInt(r, "size", api.pageSize)
	if !okNumber || !okSize {
		writeError(w, domain.InvalidPage(number, size))
		return
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page, err := view.Page(number, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type documentsResponse struct {
	Items []*domain.Document `json:"items"`
	Total int                `json:"total"`
}

func (api *API) handlePages(w http.ResponseWriter, _ *http.Request) {
	view, ok := api.current(w)
	if !ok {
		return
	}
	pages := view.Chronological(domain.LayoutPage)
	writeJSON(w, http.StatusOK, documentsResponse{Items: pages, Total: len(pages)})
}

func (api *API) handleArchive(w http.ResponseWriter, _ *http.Request) {
	view, ok := api.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.Archive())
}

type tagSummary struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

func summarizeTag(tag tags.Tag) tagSummary {
	return tagSummary{Key: tag.Key, Name: tag.Name, Slug: tag.Slug, Count: tag.Count()}
}

func (api *API) handleTags(w http.ResponseWriter, _ *http.Request) {
	view, ok := api.current(w)
	if !ok {
		return
	}
	all := view.Snapshot().Tags().All()
	out := make([]tagSummary, 0, len(all))
	for _, tag := range all {
		out = append(out, summarizeTag(tag))
	}
	writeJSON(w, http.StatusOK, out)
}

type tagResponse struct {
	Tag   tagSummary         `json:"tag"`
	Items []*domain.Document `json:"items"`
}

// handleTag answers with an empty list for unknown tags, mirroring
// listing.ByTag.
func (api *API) handleTag(w http.ResponseWriter, r *http.Request) {
	view, ok := api.current(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "tag")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	resp := tagResponse{
		Tag:   tagSummary{Key: domain.TagKey(name), Name: name},
		Items: view.ByTag(name),
	}
	if tag, found := view.Snapshot().Tags().Lookup(name); found {
		resp.Tag = summarizeTag(tag)
	}
	writeJSON(w, http.StatusOK, resp)
}

type documentResponse struct {
	Document *domain.Document `json:"document"`
	Newer    *documentLink    `json:"newer,omitempty"`
	Older    *documentLink    `json:"older,omitempty"`
}

type documentLink struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
}

func linkTo(doc *domain.Document) *documentLink {
	if doc == nil {
		return nil
	}
	return &documentLink{ID: doc.ID(), Title: doc.Title(), Permalink: doc.Permalink()}
}

func (api *API) handleDocument(w http.ResponseWriter, r *http.Request) {
	view, ok := api.current(w)
	if !ok {
		return
	}
	id := strings.Trim(chi.URLParam(r, "*"), "/")
	doc, found := view.Snapshot().Document(id)
	if !found {
		writeError(w, fmt.Errorf("document %q: %w", id, errNotFound))
		return
	}
	api.writeDocument(w, view, doc)
}

func (api *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	view, ok := api.current(w)
	if !ok {
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	doc, found := view.Snapshot().ByPermalink(path)
	if !found {
		writeError(w, fmt.Errorf("permalink %q: %w", path, errNotFound))
		return
	}
	api.writeDocument(w, view, doc)
}

func (api *API) writeDocument(w http.ResponseWriter, view *listing.Listing, doc *domain.Document) {
	newer, older := view.Adjacent(doc.ID())
	writeJSON(w, http.StatusOK, documentResponse{
		Document: doc,
		Newer:    linkTo(newer),
		Older:    linkTo(older),
	})
}
