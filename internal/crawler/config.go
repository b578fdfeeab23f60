package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Default site layout and pipeline limits.
const (
	DefaultPageSize               = 15
	DefaultPageParam              = "page"
	DefaultCategoryPrefix         = "/category/"
	DefaultObjectSelector         = "a[href][title]"
	DefaultReviewLinkSelector     = "a.r_space[href]"
	DefaultReviewTextSelector     = "span.description.line-height-comfort"
	DefaultMaxConsecutiveFailures = 10
)

// Config holds the settings for a crawl session.
// It is decoupled from Viper so the engine can be built directly in tests.
type Config struct {
	BaseURL                string
	CategoryPrefix         string
	PageParam              string
	PageSize               int
	ObjectSelector         string
	ReviewLinkSelector     string
	ReviewTextSelector     string
	MaxConsecutiveFailures int
}

// withDefaults fills zero-valued fields.
func (c Config) withDefaults() Config {
	if c.CategoryPrefix == "" {
		c.CategoryPrefix = DefaultCategoryPrefix
	}
	if c.PageParam == "" {
		c.PageParam = DefaultPageParam
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.ObjectSelector == "" {
		c.ObjectSelector = DefaultObjectSelector
	}
	if c.ReviewLinkSelector == "" {
		c.ReviewLinkSelector = DefaultReviewLinkSelector
	}
	if c.ReviewTextSelector == "" {
		c.ReviewTextSelector = DefaultReviewTextSelector
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	return c
}

// Validate checks for obviously bad configuration.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base url %q must be absolute", c.BaseURL)
	}
	if !strings.HasPrefix(c.CategoryPrefix, "/") {
		return fmt.Errorf("category prefix %q must start with /", c.CategoryPrefix)
	}
	return nil
}
