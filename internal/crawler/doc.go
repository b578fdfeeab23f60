// Package crawler implements the review crawl pipeline: category discovery,
// flat-index object location over paginated listings, review page
// enumeration, per-review processing with in-memory deduplication, and the
// orchestrator that sequences them and checkpoints progress after every
// object.
//
// The orchestrator runs on a single goroutine. Concurrency only appears when
// the reviews of one listing page are processed: each review is handled on
// its own goroutine and the page is joined before the next one is requested.
// All network fetches go through a shared Gate that bounds in-flight requests.
package crawler
