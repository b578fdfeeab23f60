package crawler

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/review-crawler/internal/metrics"
)

// ReviewJob identifies one review page together with the object it belongs to.
type ReviewJob struct {
	Category  string
	ObjectURL string
	ReviewURL string
}

// Processor turns one review URL into at most one accepted ReviewRecord.
type Processor struct {
	fetcher   *gatedFetcher
	selector  string
	dedup     *DedupStore
	profanity map[string]struct{}
	queue     WriteQueue
	clock     Clock
	logger    *zap.Logger
}

// Process fetches and filters a single review. It returns nil when the page
// cannot be fetched, the text node is missing, or the text was already
// accepted. Profane reviews are flagged but still recorded and queued.
func (p *Processor) Process(ctx context.Context, job ReviewJob) *ReviewRecord {
	doc, err := p.fetcher.fetch(ctx, kindReview, job.ReviewURL)
	if err != nil {
		metrics.ObserveReview(metrics.OutcomeFailed)
		p.logger.Warn("review fetch failed", zap.String("url", job.ReviewURL), zap.Error(err))
		return nil
	}

	node := doc.Find(p.selector).First()
	if node.Length() == 0 {
		metrics.ObserveReview(metrics.OutcomeMissing)
		p.logger.Warn("review text not found", zap.String("url", job.ReviewURL))
		return nil
	}
	text := CleanText(nodeText(node))
	if text == "" {
		metrics.ObserveReview(metrics.OutcomeMissing)
		p.logger.Warn("review text empty", zap.String("url", job.ReviewURL))
		return nil
	}

	if !p.dedup.Claim(text) {
		metrics.ObserveReview(metrics.OutcomeDuplicate)
		p.logger.Warn("duplicate review skipped", zap.String("url", job.ReviewURL))
		return nil
	}

	word, profane := FindProfanity(text, p.profanity)
	if profane {
		metrics.ObserveProfanity()
		p.logger.Warn("profanity detected",
			zap.String("url", job.ReviewURL),
			zap.String("word", word),
		)
	}

	p.queue.Enqueue(LogEntry{Text: text, SourceURL: job.ReviewURL})
	metrics.ObserveReview(metrics.OutcomeAccepted)

	rec := &ReviewRecord{
		Length:       utf8.RuneCountInString(text),
		Category:     job.Category,
		ObjectURL:    job.ObjectURL,
		ReviewURL:    job.ReviewURL,
		Text:         text,
		HasProfanity: profane,
		ScrapedAt:    p.clock.Now(),
	}
	p.logger.Info("review accepted",
		zap.String("url", job.ReviewURL),
		zap.Int("length", rec.Length),
		zap.Bool("profanity", profane),
	)
	return rec
}
