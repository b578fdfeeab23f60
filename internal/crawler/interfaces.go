package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher resolves a URL to a parsed HTML document. Non-2xx responses are
// returned as errors.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*goquery.Document, error)
}

// Gate bounds the number of in-flight fetches.
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

// ReviewStore persists the batch of records produced for one object.
type ReviewStore interface {
	EnsureSchema(ctx context.Context) error
	SaveReviews(ctx context.Context, records []ReviewRecord) error
}

// CheckpointStore persists crawl progress between runs.
type CheckpointStore interface {
	Load(ctx context.Context) (Checkpoint, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// WriteQueue hands accepted review text to the text log consumer.
type WriteQueue interface {
	Enqueue(entry LogEntry)
	Drain(ctx context.Context) error
	Stop() error
}

// Notifier announces flushed objects to downstream consumers.
type Notifier interface {
	Publish(ctx context.Context, event ObjectFlushed) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
