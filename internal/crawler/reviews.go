package crawler

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

// Enumerator lists the review URLs on one review page of an object.
type Enumerator struct {
	fetcher   *gatedFetcher
	base      *url.URL
	pageParam string
	selector  string
	logger    *zap.Logger
}

// List fetches review page number page of objectURL. A transport or status
// failure yields PageFailed; a fetched page without review links yields
// PageEmpty.
func (e *Enumerator) List(ctx context.Context, objectURL string, page int) PageResult {
	pageURL, err := withPage(objectURL, e.pageParam, page)
	if err != nil {
		return PageResult{Status: PageFailed, Err: err}
	}
	doc, err := e.fetcher.fetch(ctx, kindReviews, pageURL)
	if err != nil {
		e.logger.Warn("review page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return PageResult{Status: PageFailed, Err: err}
	}
	urls := newLinks(doc, e.selector, e.base, nil)
	if len(urls) == 0 {
		return PageResult{Status: PageEmpty}
	}
	return PageResult{Status: PageOK, URLs: urls}
}
