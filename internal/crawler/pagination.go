package crawler

import (
	"fmt"
	"net/url"
	"strconv"
)

// PageFor maps a 0-based flat index to a 1-based listing page and the
// in-page offset for the given page size.
func PageFor(index, pageSize int) (page, offset int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if index < 0 {
		index = 0
	}
	return index/pageSize + 1, index % pageSize
}

// itemsBefore is the number of objects listed on pages preceding page.
func itemsBefore(page, pageSize int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// withPage returns rawURL with the page query parameter set to page.
func withPage(rawURL, param string, page int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resolveHref turns an anchor href into an absolute URL against base.
func resolveHref(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("parse href: %w", err)
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	return abs, nil
}
