package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if fetchesTotal == nil || reviewsTotal == nil || batchesTotal == nil || gateInFlight == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveReviewIncrementsOutcome(t *testing.T) {
	Init()
	before := testutil.ToFloat64(reviewsTotal.WithLabelValues(OutcomeDuplicate))
	ObserveReview(OutcomeDuplicate)
	ObserveReview(OutcomeDuplicate)
	if got := testutil.ToFloat64(reviewsTotal.WithLabelValues(OutcomeDuplicate)) - before; got != 2 {
		t.Fatalf("expected 2 duplicate observations, got %f", got)
	}
}

func TestObserveFetchAndBatch(t *testing.T) {
	Init()
	fetchBefore := testutil.ToFloat64(fetchesTotal.WithLabelValues("review", OutcomeError))
	batchBefore := testutil.ToFloat64(batchesTotal.WithLabelValues(OutcomeStored))

	ObserveFetch("review", OutcomeError, 10*time.Millisecond)
	ObserveBatch(OutcomeStored)

	if got := testutil.ToFloat64(fetchesTotal.WithLabelValues("review", OutcomeError)) - fetchBefore; got != 1 {
		t.Fatalf("expected 1 fetch error, got %f", got)
	}
	if got := testutil.ToFloat64(batchesTotal.WithLabelValues(OutcomeStored)) - batchBefore; got != 1 {
		t.Fatalf("expected 1 stored batch, got %f", got)
	}
}

func TestGateGaugeTracksHolders(t *testing.T) {
	Init()
	before := testutil.ToFloat64(gateInFlight)
	IncGateInFlight()
	IncGateInFlight()
	DecGateInFlight()
	if got := testutil.ToFloat64(gateInFlight) - before; got != 1 {
		t.Fatalf("expected gauge delta 1, got %f", got)
	}
	DecGateInFlight()
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://vseotzyvy.ru", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
