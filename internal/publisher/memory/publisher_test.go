package memory

import (
	"context"
	"testing"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

func TestPublisherStoresEvents(t *testing.T) {
	t.Parallel()

	pub := New()
	if err := pub.Publish(context.Background(), crawler.ObjectFlushed{ObjectIndex: 0, Reviews: 3}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := pub.Publish(context.Background(), crawler.ObjectFlushed{ObjectIndex: 1}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	events := pub.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Reviews != 3 || events[1].ObjectIndex != 1 {
		t.Fatalf("events not recorded correctly: %+v", events)
	}

	events[0].Reviews = 99
	if pub.Events()[0].Reviews == 99 {
		t.Fatal("expected Events() to return a copy")
	}
}
