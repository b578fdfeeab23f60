// Package app builds the long-lived services of a crawl run and wires them
// into the engine, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/review-crawler/internal/clock/system"
	"github.com/JakeFAU/review-crawler/internal/config"
	"github.com/JakeFAU/review-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/review-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/review-crawler/internal/id/uuid"
	"github.com/JakeFAU/review-crawler/internal/metrics"
	"github.com/JakeFAU/review-crawler/internal/policy/gate"
	"github.com/JakeFAU/review-crawler/internal/policy/ratelimit"
	pubsubpublisher "github.com/JakeFAU/review-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/review-crawler/internal/storage/gcs"
	"github.com/JakeFAU/review-crawler/internal/storage/local"
	"github.com/JakeFAU/review-crawler/internal/storage/postgres"
	"github.com/JakeFAU/review-crawler/internal/storage/sqlite"
	"github.com/JakeFAU/review-crawler/internal/textlog"
	"github.com/JakeFAU/review-crawler/internal/wordlist"
)

// ProgressStore is a checkpoint store that can also be cleared.
type ProgressStore interface {
	crawler.CheckpointStore
	Reset(ctx context.Context) error
}

// Option customizes New.
type Option func(*options)

type options struct {
	fetcher  crawler.PageFetcher
	notifier crawler.Notifier
}

// WithFetcher replaces the colly fetcher.
func WithFetcher(f crawler.PageFetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithNotifier replaces the Pub/Sub notifier.
func WithNotifier(n crawler.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// App holds every service of one crawl run.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	runID    string
	engine   *crawler.Engine
	textLog  *textlog.Persister
	archiver *gcs.Archiver
	closers  []func() error
}

// New initializes services and fails fast when a required one is missing.
// A missing profanity list is fatal.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, err
	}
	a.runID = runID
	a.logger = logger.With(zap.String("run_id", runID))

	words, err := wordlist.Load(cfg.Files.ProfanityList)
	if err != nil {
		return nil, fmt.Errorf("load profanity list: %w", err)
	}
	a.logger.Info("profanity list loaded", zap.Int("words", len(words)))

	seed, err := textlog.Seed(cfg.Files.ReviewsLog)
	if err != nil {
		a.logger.Warn("text log unreadable, dedup starts empty", zap.Error(err))
		seed = nil
	}
	a.logger.Info("dedup seeded", zap.Int("texts", len(seed)))

	var pool *pgxpool.Pool
	if cfg.UsesPostgres() {
		if pool, err = postgres.Connect(ctx, postgres.PoolConfig{DSN: cfg.Storage.PostgresDSN}); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
	}

	store, err := a.openReviewStore(ctx, pool)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	progress, err := openProgress(ctx, cfg, pool)
	if err != nil {
		return nil, err
	}

	textLog, err := textlog.Open(cfg.Files.ReviewsLog, a.logger)
	if err != nil {
		return nil, err
	}
	a.textLog = textLog
	a.closers = append(a.closers, textLog.Stop)

	notifier := o.notifier
	if notifier == nil && cfg.PubSub.Topic != "" {
		if notifier, err = a.openPubSub(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.Archive.GCSBucket != "" {
		if err := a.openArchiver(ctx); err != nil {
			return nil, err
		}
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.Crawler.UserAgent,
			RespectRobots: cfg.Crawler.RespectRobots,
			Timeout:       cfg.Crawler.RequestTimeout,
			Pacer:         ratelimit.New(ratelimit.Config{RPS: cfg.Crawler.RequestsPerSecond, Burst: 1}),
		})
	}

	engine, err := crawler.NewEngine(cfg.EngineConfig(), crawler.Deps{
		Fetcher:     fetcher,
		Gate:        gate.New(cfg.Crawler.MaxConcurrency),
		Dedup:       crawler.NewDedupStore(seed),
		Profanity:   words,
		Queue:       textLog,
		Store:       store,
		Checkpoints: progress,
		Notifier:    notifier,
		Clock:       system.New(),
		RunID:       runID,
		Logger:      a.logger.Named("crawler"),
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	a.engine = engine
	return a, nil
}

// RunID identifies this run in logs and events.
func (a *App) RunID() string { return a.runID }

// Run crawls to completion, then archives the text log when configured.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Metrics.Addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := metrics.Serve(metricsCtx, a.cfg.Metrics.Addr, a.logger); err != nil {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	if err := a.engine.Run(ctx); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	if a.archiver != nil {
		uri, err := a.archiver.Archive(context.WithoutCancel(ctx), a.runID, a.textLog.Path())
		if err != nil {
			a.logger.Error("archive text log failed", zap.Error(err))
			return nil
		}
		a.logger.Info("text log archived", zap.String("uri", uri))
	}
	return nil
}

// Close releases every service in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openReviewStore(ctx context.Context, pool *pgxpool.Pool) (crawler.ReviewStore, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverPostgres:
		return postgres.NewReviewStore(pool, a.cfg.Storage.Table, a.cfg.Storage.BatchRows)
	default:
		s, err := sqlite.Open(ctx, sqlite.Config{
			Path:      a.cfg.Storage.SQLitePath,
			Table:     a.cfg.Storage.Table,
			BatchRows: a.cfg.Storage.BatchRows,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
}

func (a *App) openPubSub(ctx context.Context) (crawler.Notifier, error) {
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(a.cfg.PubSub.Topic)
	a.closers = append(a.closers, func() error {
		topic.Stop()
		if err := client.Close(); err != nil {
			return fmt.Errorf("close pubsub client: %w", err)
		}
		return nil
	})
	a.logger.Info("pubsub notifications enabled", zap.String("topic", a.cfg.PubSub.Topic))
	return pubsubpublisher.New(topic)
}

func (a *App) openArchiver(ctx context.Context) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	a.closers = append(a.closers, func() error {
		if err := client.Close(); err != nil {
			return fmt.Errorf("close storage client: %w", err)
		}
		return nil
	})
	archiver, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Archive.GCSBucket, Prefix: a.cfg.Archive.Prefix})
	if err != nil {
		return err
	}
	a.archiver = archiver
	return nil
}

// OpenProgress opens only the checkpoint store, for commands that inspect
// or clear progress without crawling. The returned func releases it.
func OpenProgress(ctx context.Context, cfg config.Config) (ProgressStore, func(), error) {
	if cfg.Checkpoint.Backend != config.BackendPG {
		store, err := local.NewCheckpointFile(cfg.Files.Checkpoint)
		return store, func() {}, err
	}
	p, err := postgres.Connect(ctx, postgres.PoolConfig{DSN: cfg.Storage.PostgresDSN})
	if err != nil {
		return nil, func() {}, err
	}
	store, err := openProgress(ctx, cfg, p)
	if err != nil {
		p.Close()
		return nil, func() {}, err
	}
	return store, p.Close, nil
}

func openProgress(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (ProgressStore, error) {
	if cfg.Checkpoint.Backend != config.BackendPG {
		return local.NewCheckpointFile(cfg.Files.Checkpoint)
	}
	store, err := postgres.NewProgressStore(pool)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
