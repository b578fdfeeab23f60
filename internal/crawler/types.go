package crawler

import (
	"net/url"
	"strings"
	"time"
)

// Category is a top-level listing page discovered from the site root.
type Category struct {
	URL string
}

// Name derives a human readable label from the last path segment.
func (c Category) Name() string {
	u, err := url.Parse(c.URL)
	p := c.URL
	if err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Location pins an object URL to its listing coordinates.
type Location struct {
	URL    string
	Page   int
	Offset int
}

// PageStatus classifies the outcome of a review listing request.
type PageStatus int

// Review listing outcomes.
const (
	// PageOK means the page was fetched and produced review links.
	PageOK PageStatus = iota
	// PageEmpty means the page was fetched but had no review links.
	PageEmpty
	// PageFailed means the page could not be fetched.
	PageFailed
)

// String implements fmt.Stringer.
func (s PageStatus) String() string {
	switch s {
	case PageOK:
		return "ok"
	case PageEmpty:
		return "empty"
	case PageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageResult is returned by the review page enumerator.
type PageResult struct {
	Status PageStatus
	URLs   []string
	Err    error
}

// ReviewRecord is one accepted review, ready for structured storage.
type ReviewRecord struct {
	Length       int       `db:"length" json:"length"`
	Category     string    `db:"category" json:"category"`
	ObjectURL    string    `db:"object_url" json:"object_url"`
	ReviewURL    string    `db:"review_url" json:"review_url"`
	Text         string    `db:"text" json:"text"`
	HasProfanity bool      `db:"has_profanity" json:"has_profanity"`
	ScrapedAt    time.Time `db:"scraped_at" json:"scraped_at"`
}

// LogEntry is queued for the append-only text log.
type LogEntry struct {
	Text      string
	SourceURL string
}

// Checkpoint records the next object to process. Both indexes are 0-based in
// memory; persistence layers own the on-disk representation.
type Checkpoint struct {
	Category int
	Object   int
}

// ObjectFlushed describes a completed object and is handed to the Notifier.
type ObjectFlushed struct {
	RunID       string `json:"run_id"`
	Category    string `json:"category"`
	ObjectURL   string `json:"object_url"`
	ObjectIndex int    `json:"object_index"`
	Reviews     int    `json:"reviews"`
	Stored      bool   `json:"stored"`
}
