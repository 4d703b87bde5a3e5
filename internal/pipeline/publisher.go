package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-folio/internal/collection"
	"github.com/goliatone/go-folio/internal/listing"
	"github.com/goliatone/go-folio/internal/logging"
	"github.com/goliatone/go-folio/pkg/interfaces"
)

// SnapshotBuilder produces a fresh snapshot per call. *Service satisfies it.
type SnapshotBuilder interface {
	Build(ctx context.Context) (*collection.Snapshot, error)
}

// PublishFunc is notified after a new snapshot has been published.
type PublishFunc func(ctx context.Context, snap *collection.Snapshot)

// Publisher holds the current snapshot. Readers never block: Current is a
// single atomic load. Rebuilds are serialised and a failed rebuild leaves the
// previously published snapshot in place.
type Publisher struct {
	builder SnapshotBuilder
	logger  interfaces.Logger

	current atomic.Pointer[publication]

	mu        sync.Mutex
	listeners []PublishFunc
}

type publication struct {
	snapshot *collection.Snapshot
	listing  *listing.Listing
}

// PublisherOption customises a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the publisher logger.
func WithPublisherLogger(logger interfaces.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// OnPublish registers fn to run after every successful publish.
func OnPublish(fn PublishFunc) PublisherOption {
	return func(p *Publisher) {
		if fn != nil {
			p.listeners = append(p.listeners, fn)
		}
	}
}

// NewPublisher constructs a Publisher with nothing published yet.
func NewPublisher(builder SnapshotBuilder, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		builder: builder,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Rebuild runs a pass and, only when it succeeds, swaps the published
// snapshot.
func (p *Publisher) Rebuild(ctx context.Context) (*collection.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap, err := p.builder.Build(ctx)
	if err != nil {
		p.logger.Warn("pipeline.publish.skipped",
			"error", err,
			"keeping_built_at", p.Current().BuiltAt(),
		)
		return nil, err
	}

	p.publish(ctx, snap)
	return snap, nil
}

// Publish installs snap directly, bypassing the builder.
func (p *Publisher) Publish(ctx context.Context, snap *collection.Snapshot) {
	if snap == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publish(ctx, snap)
}

func (p *Publisher) publish(ctx context.Context, snap *collection.Snapshot) {
	p.current.Store(&publication{snapshot: snap, listing: listing.New(snap)})
	p.logger.Info("pipeline.publish.completed",
		"documents", snap.Len(),
		"built_at", snap.BuiltAt(),
	)
	for _, fn := range p.listeners {
		fn(ctx, snap)
	}
}

// Current returns the published snapshot, or nil before the first success.
func (p *Publisher) Current() *collection.Snapshot {
	if pub := p.current.Load(); pub != nil {
		return pub.snapshot
	}
	return nil
}

// Listing returns the listing view over the published snapshot. Before the
// first publish it is a listing over an empty snapshot.
func (p *Publisher) Listing() *listing.Listing {
	if pub := p.current.Load(); pub != nil {
		return pub.listing
	}
	return listing.New(nil)
}

// Ready reports whether a snapshot has been published.
func (p *Publisher) Ready() bool {
	return p.current.Load() != nil
}
