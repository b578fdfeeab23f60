// Package memory records flushed-object events in memory.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

// Publisher keeps every published event for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []crawler.ObjectFlushed
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records event.
func (p *Publisher) Publish(_ context.Context, event crawler.ObjectFlushed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (p *Publisher) Events() []crawler.ObjectFlushed {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]crawler.ObjectFlushed, len(p.events))
	copy(out, p.events)
	return out
}

var _ crawler.Notifier = (*Publisher)(nil)
