package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverCategories fetches the site root once and returns every category
// link in document order. A failed root fetch is returned to the caller.
func (e *Engine) DiscoverCategories(ctx context.Context) ([]Category, error) {
	doc, err := e.fetcher.fetch(ctx, kindRoot, e.base.String())
	if err != nil {
		return nil, fmt.Errorf("discover categories: %w", err)
	}
	return categoriesFrom(doc, e.base, e.cfg.CategoryPrefix), nil
}

func categoriesFrom(doc *goquery.Document, base *url.URL, prefix string) []Category {
	var out []Category
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := resolveHref(base, href)
		if err != nil {
			return
		}
		if !strings.EqualFold(abs.Host, base.Host) || !strings.HasPrefix(abs.Path, prefix) {
			return
		}
		raw := abs.String()
		if _, dup := seen[raw]; dup {
			return
		}
		seen[raw] = struct{}{}
		out = append(out, Category{URL: raw})
	})
	return out
}
