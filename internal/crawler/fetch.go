package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/review-crawler/internal/metrics"
)

// Page kinds used as metric labels.
const (
	kindRoot    = "root"
	kindListing = "listing"
	kindReviews = "reviews"
	kindReview  = "review"
)

// gatedFetcher holds a gate slot for the duration of every fetch.
type gatedFetcher struct {
	next PageFetcher
	gate Gate
}

func (f *gatedFetcher) fetch(ctx context.Context, kind, rawURL string) (*goquery.Document, error) {
	if err := f.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer f.gate.Release()

	start := time.Now()
	doc, err := f.next.Fetch(ctx, rawURL)
	if err != nil {
		metrics.ObserveFetch(kind, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	metrics.ObserveFetch(kind, metrics.OutcomeOK, time.Since(start))
	return doc, nil
}
