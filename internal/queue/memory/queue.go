// Package memory provides an unbounded in-process queue with a single
// consumer goroutine.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

// Handler consumes one entry. Errors are logged and the entry is dropped.
type Handler func(entry crawler.LogEntry) error

// Queue buffers entries without bound and hands them to Handler in FIFO
// order from one goroutine.
type Queue struct {
	handle Handler
	logger *zap.Logger

	mu      sync.Mutex
	items   []crawler.LogEntry
	pending int
	idle    chan struct{}

	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// NewQueue starts the consumer goroutine.
func NewQueue(handle Handler, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		handle: handle,
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue never blocks. Entries offered after Stop are dropped.
func (q *Queue) Enqueue(entry crawler.LogEntry) {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		q.logger.Warn("queue stopped, entry dropped", zap.String("source_url", entry.SourceURL))
		return
	}

	q.mu.Lock()
	q.items = append(q.items, entry)
	q.pending++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Drain blocks until every entry enqueued so far has been handled or ctx
// ends.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if q.pending == 0 {
		q.mu.Unlock()
		return nil
	}
	if q.idle == nil {
		q.idle = make(chan struct{})
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain canceled: %w", ctx.Err())
	}
}

// Stop signals the consumer and waits for it to exit. Entries still buffered
// are handled first. Stop is idempotent.
func (q *Queue) Stop() error {
	q.closeMu.Lock()
	if !q.closed {
		q.closed = true
		close(q.stop)
	}
	q.closeMu.Unlock()
	<-q.done
	return nil
}

// Len reports entries not yet handled.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		entry, ok := q.next()
		if !ok {
			return
		}
		if err := q.handle(entry); err != nil {
			q.logger.Error("handle queued entry", zap.String("source_url", entry.SourceURL), zap.Error(err))
		}
		q.finish()
	}
}

// next pops the oldest entry, waiting for one to arrive. It reports false
// once stopped and empty.
func (q *Queue) next() (crawler.LogEntry, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			entry := q.items[0]
			q.items[0] = crawler.LogEntry{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return entry, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.stop:
			q.mu.Lock()
			empty := len(q.items) == 0
			q.mu.Unlock()
			if empty {
				return crawler.LogEntry{}, false
			}
		}
	}
}

func (q *Queue) finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending == 0 && q.idle != nil {
		close(q.idle)
		q.idle = nil
	}
}

var _ crawler.WriteQueue = (*Queue)(nil)
