package ports

import (
	"context"

	"FeedHarvester/internal/domain"
)

// Source is the capability contract every discovery adapter implements.
// The engine knows nothing about an adapter's internals: feed, HTML
// listing, or anything else that can enumerate and retrieve articles.
type Source interface {
	// Discover returns up to count articles currently listed at the source.
	Discover(ctx context.Context, count int) ([]domain.Article, error)
	// Fetch retrieves the raw payload for one discovered article.
	Fetch(ctx context.Context, article domain.Article) (domain.Content, error)
}

// SourceProvider supplies the ordered descriptor stream from an external catalog.
type SourceProvider interface {
	Sources(ctx context.Context) ([]domain.SourceDescriptor, error)
}

// ContentHandler consumes fetched payloads (rendering, persistence, ...).
// A nil handler makes the pipeline discovery-only.
type ContentHandler interface {
	Handle(ctx context.Context, content domain.Content) error
}

// StatusSink receives structured progress events. The engine never writes
// to a terminal directly; the sink decides presentation.
type StatusSink interface {
	Connecting(sourceID string, attempt int)
	CircuitOpened(sourceID string, failures int)
	SourceSkipped(sourceID string, attempts int, reason string)
	FallbackUsed(sourceID string, endpoint string)
	BatchFinished(result domain.BatchResult)
}
