package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/review-crawler/internal/metrics"
)

// Deps bundles the collaborators an Engine drives.
type Deps struct {
	Fetcher     PageFetcher
	Gate        Gate
	Dedup       *DedupStore
	Profanity   map[string]struct{}
	Queue       WriteQueue
	Store       ReviewStore
	Checkpoints CheckpointStore
	// Notifier is optional.
	Notifier Notifier
	Clock    Clock
	RunID    string
	Logger   *zap.Logger
}

// Engine walks categories, objects and review pages, flushing one batch of
// records and advancing the checkpoint after every object.
type Engine struct {
	cfg         Config
	base        *url.URL
	fetcher     *gatedFetcher
	locator     *Locator
	enumerator  *Enumerator
	processor   *Processor
	queue       WriteQueue
	store       ReviewStore
	checkpoints CheckpointStore
	notifier    Notifier
	runID       string
	logger      *zap.Logger
}

// NewEngine validates cfg and wires the pipeline stages.
func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case deps.Gate == nil:
		return nil, errors.New("gate is required")
	case deps.Dedup == nil:
		return nil, errors.New("dedup store is required")
	case deps.Queue == nil:
		return nil, errors.New("write queue is required")
	case deps.Store == nil:
		return nil, errors.New("review store is required")
	case deps.Checkpoints == nil:
		return nil, errors.New("checkpoint store is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gf := &gatedFetcher{next: deps.Fetcher, gate: deps.Gate}
	return &Engine{
		cfg:     cfg,
		base:    base,
		fetcher: gf,
		locator: &Locator{
			fetcher:   gf,
			base:      base,
			pageParam: cfg.PageParam,
			pageSize:  cfg.PageSize,
			selector:  cfg.ObjectSelector,
			logger:    logger,
		},
		enumerator: &Enumerator{
			fetcher:   gf,
			base:      base,
			pageParam: cfg.PageParam,
			selector:  cfg.ReviewLinkSelector,
			logger:    logger,
		},
		processor: &Processor{
			fetcher:   gf,
			selector:  cfg.ReviewTextSelector,
			dedup:     deps.Dedup,
			profanity: deps.Profanity,
			queue:     deps.Queue,
			clock:     deps.Clock,
			logger:    logger,
		},
		queue:       deps.Queue,
		store:       deps.Store,
		checkpoints: deps.Checkpoints,
		notifier:    deps.Notifier,
		runID:       deps.RunID,
		logger:      logger.With(zap.String("run_id", deps.RunID)),
	}, nil
}

// Run crawls until every category is exhausted or ctx is canceled. Only a
// failed root fetch is returned as an error; every other failure is logged
// and the crawl moves on. The write queue is always drained and stopped
// before Run returns.
func (e *Engine) Run(ctx context.Context) (err error) {
	defer func() {
		if shutdownErr := e.shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
	}()

	categories, err := e.DiscoverCategories(ctx)
	if err != nil {
		return err
	}
	e.logger.Info("categories discovered", zap.Int("count", len(categories)))

	start := e.loadCheckpoint(ctx)
	for ci := start.Category; ci < len(categories); ci++ {
		if ctx.Err() != nil {
			break
		}
		e.crawlCategory(ctx, ci, categories[ci], len(categories))
	}
	if ctx.Err() != nil {
		e.logger.Warn("crawl interrupted", zap.Error(ctx.Err()))
		return nil
	}
	e.logger.Info("crawl complete")
	return nil
}

func (e *Engine) shutdown(ctx context.Context) error {
	var errs []error
	if err := e.queue.Drain(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain write queue: %w", err))
	}
	if err := e.queue.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop write queue: %w", err))
	}
	return errors.Join(errs...)
}

// loadCheckpoint reads the stored checkpoint, falling back to the start of
// the crawl when it is missing or unreadable.
func (e *Engine) loadCheckpoint(ctx context.Context) Checkpoint {
	cp, err := e.checkpoints.Load(ctx)
	if err != nil {
		e.logger.Warn("checkpoint unreadable, starting from the beginning", zap.Error(err))
		return Checkpoint{}
	}
	if cp.Category < 0 || cp.Object < 0 {
		return Checkpoint{}
	}
	return cp
}

func (e *Engine) crawlCategory(ctx context.Context, ci int, cat Category, total int) {
	name := cat.Name()
	logger := e.logger.With(zap.String("category", name))
	logger.Info("category started", zap.Int("index", ci+1), zap.Int("total", total))

	obj := 0
	if cp := e.loadCheckpoint(ctx); cp.Category == ci {
		obj = cp.Object
	}

	for ctx.Err() == nil {
		loc, ok := e.locator.Locate(ctx, cat.URL, obj)
		if !ok {
			logger.Info("no more objects", zap.Int("objects", obj))
			return
		}
		logger.Info("object started",
			zap.Int("index", obj+1),
			zap.Int("page", loc.Page),
			zap.Int("position", loc.Offset+1),
			zap.String("url", loc.URL),
		)
		records, complete := e.crawlObject(ctx, name, loc.URL)
		if !complete {
			e.storeInterrupted(ctx, obj, loc.URL, records)
			return
		}
		e.flushObject(ctx, ci, obj, name, loc.URL, records)
		obj++
	}
}

// storeInterrupted saves the records gathered before ctx ended, without
// advancing the checkpoint, so the next run revisits the whole object.
// Their texts are already claimed and logged, so they are stored now.
func (e *Engine) storeInterrupted(ctx context.Context, obj int, objectURL string, records []ReviewRecord) {
	e.logger.Warn("object interrupted, checkpoint kept",
		zap.Int("index", obj+1),
		zap.String("object_url", objectURL),
		zap.Int("records", len(records)),
	)
	if len(records) == 0 {
		return
	}
	if err := e.store.SaveReviews(context.WithoutCancel(ctx), records); err != nil {
		metrics.ObserveBatch(metrics.OutcomeFailed)
		e.logger.Error("save interrupted reviews failed", zap.String("object_url", objectURL), zap.Error(err))
		return
	}
	metrics.ObserveBatch(metrics.OutcomeStored)
}

// crawlObject walks review pages of objectURL until a page is empty or the
// failure threshold is hit. complete is false when ctx ended first.
func (e *Engine) crawlObject(ctx context.Context, category, objectURL string) (records []ReviewRecord, complete bool) {
	failures := 0
	for page := 1; ctx.Err() == nil; page++ {
		res := e.enumerator.List(ctx, objectURL, page)
		if ctx.Err() != nil {
			break
		}
		switch res.Status {
		case PageEmpty:
			return records, true
		case PageFailed:
			failures++
			if failures >= e.cfg.MaxConsecutiveFailures {
				e.logger.Error("too many consecutive review page failures",
					zap.String("object_url", objectURL),
					zap.Int("failures", failures),
				)
				return records, true
			}
			continue
		}
		failures = 0
		batch, err := e.processBatch(ctx, category, objectURL, res.URLs)
		records = append(records, batch...)
		if err != nil {
			break
		}
	}
	return records, false
}

// processBatch runs one Processor per review URL and waits for all of them.
// Results keep the page order. The error is non-nil when ctx ended before
// every review was processed.
func (e *Engine) processBatch(ctx context.Context, category, objectURL string, reviewURLs []string) ([]ReviewRecord, error) {
	results := make([]*ReviewRecord, len(reviewURLs))
	var g errgroup.Group
	for i, reviewURL := range reviewURLs {
		g.Go(func() error {
			results[i] = e.processor.Process(ctx, ReviewJob{
				Category:  category,
				ObjectURL: objectURL,
				ReviewURL: reviewURL,
			})
			if results[i] == nil {
				return ctx.Err()
			}
			return nil
		})
	}
	err := g.Wait()

	out := make([]ReviewRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, err
}

// flushObject stores the object's records and advances the checkpoint. The
// checkpoint moves even when the store fails.
func (e *Engine) flushObject(ctx context.Context, ci, obj int, category, objectURL string, records []ReviewRecord) {
	stored := false
	switch {
	case len(records) == 0:
		metrics.ObserveBatch(metrics.OutcomeEmpty)
	default:
		if err := e.store.SaveReviews(ctx, records); err != nil {
			metrics.ObserveBatch(metrics.OutcomeFailed)
			e.logger.Error("save reviews failed",
				zap.String("object_url", objectURL),
				zap.Int("records", len(records)),
				zap.Error(err),
			)
		} else {
			stored = true
			metrics.ObserveBatch(metrics.OutcomeStored)
			e.logger.Info("reviews saved", zap.String("object_url", objectURL), zap.Int("records", len(records)))
		}
	}

	if err := e.checkpoints.Save(ctx, Checkpoint{Category: ci, Object: obj + 1}); err != nil {
		e.logger.Error("save checkpoint failed", zap.Int("category", ci), zap.Int("object", obj+1), zap.Error(err))
	}
	metrics.ObserveObjectCompleted()

	if e.notifier == nil {
		return
	}
	event := ObjectFlushed{
		RunID:       e.runID,
		Category:    category,
		ObjectURL:   objectURL,
		ObjectIndex: obj,
		Reviews:     len(records),
		Stored:      stored,
	}
	if err := e.notifier.Publish(ctx, event); err != nil {
		metrics.ObserveNotification(metrics.OutcomeError)
		e.logger.Warn("publish object event failed", zap.String("object_url", objectURL), zap.Error(err))
		return
	}
	metrics.ObserveNotification(metrics.OutcomeOK)
}
