package crawler

import (
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Locator maps a flat object index within a category to an object URL by
// walking the paginated category listing.
type Locator struct {
	fetcher   *gatedFetcher
	base      *url.URL
	pageParam string
	pageSize  int
	selector  string
	logger    *zap.Logger
}

// Locate returns the object at index (0-based) of categoryURL. The boolean
// is false when the listing runs out before reaching index.
func (l *Locator) Locate(ctx context.Context, categoryURL string, index int) (Location, bool) {
	page, _ := PageFor(index, l.pageSize)
	fetched := itemsBefore(page, l.pageSize)
	seen := make(map[string]struct{})

	for ctx.Err() == nil {
		urls := l.listPage(ctx, categoryURL, page, seen)
		if len(urls) == 0 {
			break
		}
		if fetched+len(urls) > index {
			pos := index - fetched
			return Location{URL: urls[pos], Page: page, Offset: pos}, true
		}
		fetched += len(urls)
		page++
	}
	return Location{}, false
}

// listPage returns the object URLs on one listing page not already in seen.
// Fetch failures are logged and reported as an empty page.
func (l *Locator) listPage(ctx context.Context, categoryURL string, page int, seen map[string]struct{}) []string {
	pageURL, err := withPage(categoryURL, l.pageParam, page)
	if err != nil {
		l.logger.Warn("invalid category url", zap.String("url", categoryURL), zap.Error(err))
		return nil
	}
	doc, err := l.fetcher.fetch(ctx, kindListing, pageURL)
	if err != nil {
		l.logger.Warn("listing fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	return newLinks(doc, l.selector, l.base, seen)
}

// newLinks resolves every href matched by selector and returns those not
// already in seen, recording them.
func newLinks(doc *goquery.Document, selector string, base *url.URL, seen map[string]struct{}) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		abs, err := resolveHref(base, href)
		if err != nil {
			return
		}
		raw := abs.String()
		if seen != nil {
			if _, dup := seen[raw]; dup {
				return
			}
			seen[raw] = struct{}{}
		}
		out = append(out, raw)
	})
	return out
}
