// Package gate implements the process-wide concurrency gate that bounds the
// number of in-flight fetches.
package gate

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/review-crawler/internal/metrics"
)

// DefaultLimit is used when a non-positive limit is requested.
const DefaultLimit = 5

// Gate is a counting semaphore. Waiters are served in FIFO order.
type Gate struct {
	sem   *semaphore.Weighted
	limit int
}

// New creates a gate admitting up to limit concurrent holders.
func New(limit int) *Gate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Gate{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: limit,
	}
}

// Limit returns the configured number of slots.
func (g *Gate) Limit() int {
	return g.limit
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire gate: %w", err)
	}
	metrics.IncGateInFlight()
	return nil
}

// Release returns a slot taken by Acquire.
func (g *Gate) Release() {
	metrics.DecGateInFlight()
	g.sem.Release(1)
}
