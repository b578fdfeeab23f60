// Package textlog appends accepted reviews to a plain text log and reads the
// log back to seed deduplication on the next run.
package textlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/review-crawler/internal/crawler"
	"github.com/JakeFAU/review-crawler/internal/metrics"
	"github.com/JakeFAU/review-crawler/internal/queue/memory"
)

const textPrefix = "Rephrased Text:"

// Persister owns the text log file. Entries are queued by the crawl and
// written by a single consumer.
type Persister struct {
	path  string
	mu    sync.Mutex
	file  *os.File
	queue *memory.Queue
}

// Open opens path for appending, creating it if needed, and starts the
// consumer.
func Open(path string, logger *zap.Logger) (*Persister, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("text log path is required")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open text log: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Persister{path: path, file: f}
	p.queue = memory.NewQueue(p.Append, logger.Named("textlog"))
	return p, nil
}

// Path returns the log location.
func (p *Persister) Path() string { return p.path }

// Enqueue schedules entry for writing.
func (p *Persister) Enqueue(entry crawler.LogEntry) { p.queue.Enqueue(entry) }

// Drain waits until every queued entry is on disk.
func (p *Persister) Drain(ctx context.Context) error {
	if err := p.queue.Drain(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("sync text log: %w", err)
	}
	return nil
}

// Stop ends the consumer and closes the file.
func (p *Persister) Stop() error {
	if err := p.queue.Stop(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	if err != nil {
		return fmt.Errorf("close text log: %w", err)
	}
	return nil
}

// Append writes one block synchronously.
func (p *Persister) Append(entry crawler.LogEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		metrics.ObserveTextLogWrite(metrics.OutcomeError)
		return errors.New("text log closed")
	}
	if _, err := io.WriteString(p.file, FormatBlock(entry.Text)); err != nil {
		metrics.ObserveTextLogWrite(metrics.OutcomeError)
		return fmt.Errorf("append text log: %w", err)
	}
	metrics.ObserveTextLogWrite(metrics.OutcomeOK)
	return nil
}

// FormatBlock renders the log block for one review.
func FormatBlock(text string) string {
	return fmt.Sprintf("Source Text: \n%s %s\nLength: %d\n\n", textPrefix, text, utf8.RuneCountInString(text))
}

// Seed returns every text recorded in the log at path. A missing file yields
// an empty set.
func Seed(path string) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return seen, nil
	}
	if err != nil {
		return seen, fmt.Errorf("open text log: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadString('\n')
		if strings.HasPrefix(line, textPrefix) {
			_, rest, _ := strings.Cut(line, ":")
			seen[strings.TrimSpace(rest)] = struct{}{}
		}
		if errors.Is(readErr, io.EOF) {
			return seen, nil
		}
		if readErr != nil {
			return seen, fmt.Errorf("read text log: %w", readErr)
		}
	}
}

var _ crawler.WriteQueue = (*Persister)(nil)
