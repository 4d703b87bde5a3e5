// Package generator exposes the artifact generation API for folio hosts.
// Use NewService with Config to render feeds, sitemaps and JSON manifests for
// a published snapshot, optionally through a custom ArtifactWriter.
package generator

import internal "github.com/goliatone/go-folio/internal/generator"

type (
	Service        = internal.Service
	Config         = internal.Config
	Options        = internal.Options
	Option         = internal.Option
	Result         = internal.Result
	Artifact       = internal.Artifact
	ArtifactWriter = internal.ArtifactWriter
	WriteRequest   = internal.WriteRequest
	WriteCategory  = internal.WriteCategory
)

const (
	CategoryFeed     = internal.CategoryFeed
	CategorySitemap  = internal.CategorySitemap
	CategoryRobots   = internal.CategoryRobots
	CategoryIndex    = internal.CategoryIndex
	CategoryManifest = internal.CategoryManifest
)

// NewService wires a generator with the supplied configuration.
func NewService(cfg Config, opts ...Option) *Service {
	return internal.NewService(cfg, opts...)
}

// WithWriter routes artifacts through writer instead of the local disk.
func WithWriter(writer ArtifactWriter) Option {
	return internal.WithWriter(writer)
}

// NewFSWriter returns a writer storing artifacts below root.
func NewFSWriter(root string) ArtifactWriter {
	return internal.NewFSWriter(root)
}

// NewNoopWriter returns a writer that discards every artifact.
func NewNoopWriter() ArtifactWriter {
	return internal.NewNoopWriter()
}
