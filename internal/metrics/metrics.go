// Package metrics exposes Prometheus collectors for the review crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the counters below.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeMissing   = "missing"
	OutcomeFailed    = "failed"
	OutcomeStored    = "stored"
	OutcomeEmpty     = "empty"
)

var (
	fetchesTotal           *prometheus.CounterVec
	fetchDurationSeconds   *prometheus.HistogramVec
	reviewsTotal           *prometheus.CounterVec
	profanityTotal         prometheus.Counter
	batchesTotal           *prometheus.CounterVec
	objectsCompletedTotal  prometheus.Counter
	gateInFlight           prometheus.Gauge
	rateLimitDelaysSeconds *prometheus.HistogramVec
	textLogWritesTotal     *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_fetches_total",
				Help: "Total number of page fetches, labeled by page kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "review_crawler_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by page kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind"},
		)

		reviewsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_reviews_total",
				Help: "Total number of processed review URLs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		profanityTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "review_crawler_profanity_flagged_total",
				Help: "Total number of accepted reviews flagged for profanity.",
			},
		)

		batchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_batches_total",
				Help: "Total number of per-object batch writes, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		objectsCompletedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "review_crawler_objects_completed_total",
				Help: "Total number of objects whose reviews were flushed and checkpointed.",
			},
		)

		gateInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "review_crawler_gate_in_flight",
				Help: "Number of fetches currently holding the concurrency gate.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "review_crawler_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		textLogWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_text_log_writes_total",
				Help: "Total number of text log appends, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		notificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_crawler_notifications_total",
				Help: "Total number of flush notifications published, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one page fetch.
func ObserveFetch(kind, outcome string, duration time.Duration) {
	Init()
	fetchesTotal.WithLabelValues(kind, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveReview records the outcome of processing one review URL.
func ObserveReview(outcome string) {
	Init()
	reviewsTotal.WithLabelValues(outcome).Inc()
}

// ObserveProfanity counts an accepted review carrying a profanity flag.
func ObserveProfanity() {
	Init()
	profanityTotal.Inc()
}

// ObserveBatch records the outcome of a per-object batch write.
func ObserveBatch(outcome string) {
	Init()
	batchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveObjectCompleted counts an object that was flushed and checkpointed.
func ObserveObjectCompleted() {
	Init()
	objectsCompletedTotal.Inc()
}

// IncGateInFlight increments the gate holders gauge.
func IncGateInFlight() {
	Init()
	gateInFlight.Inc()
}

// DecGateInFlight decrements the gate holders gauge.
func DecGateInFlight() {
	Init()
	gateInFlight.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveTextLogWrite records one text log append.
func ObserveTextLogWrite(outcome string) {
	Init()
	textLogWritesTotal.WithLabelValues(outcome).Inc()
}

// ObserveNotification records one flush notification publish.
func ObserveNotification(outcome string) {
	Init()
	notificationsTotal.WithLabelValues(outcome).Inc()
}
