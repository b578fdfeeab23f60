// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

// Storage drivers and checkpoint backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	BackendFile    = "file"
	BackendPG      = "postgres"
)

// Config captures every knob of a crawl run.
type Config struct {
	Site       SiteConfig       `mapstructure:"site"`
	Crawler    CrawlerConfig    `mapstructure:"crawler"`
	Files      FilesConfig      `mapstructure:"files"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SiteConfig describes the layout of the review site.
type SiteConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	CategoryPrefix     string `mapstructure:"category_prefix"`
	PageParam          string `mapstructure:"page_param"`
	PageSize           int    `mapstructure:"page_size"`
	ObjectSelector     string `mapstructure:"object_selector"`
	ReviewLinkSelector string `mapstructure:"review_link_selector"`
	ReviewTextSelector string `mapstructure:"review_text_selector"`
}

// CrawlerConfig governs fetching and pagination limits.
type CrawlerConfig struct {
	UserAgent              string        `mapstructure:"user_agent"`
	MaxConcurrency         int           `mapstructure:"max_concurrency"`
	RequestTimeout         time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond      float64       `mapstructure:"requests_per_second"`
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures"`
	RespectRobots          bool          `mapstructure:"respect_robots"`
}

// FilesConfig locates the local files a run reads and writes.
type FilesConfig struct {
	ReviewsLog    string `mapstructure:"reviews_log"`
	ProfanityList string `mapstructure:"profanity_list"`
	Checkpoint    string `mapstructure:"checkpoint"`
}

// StorageConfig selects the structured review store.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	Table       string `mapstructure:"table"`
	BatchRows   int    `mapstructure:"batch_rows"`
}

// CheckpointConfig selects where progress is kept.
type CheckpointConfig struct {
	Backend string `mapstructure:"backend"`
}

// ArchiveConfig enables uploading the text log after a run.
type ArchiveConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig enables per-object notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from defaults, an optional file, the REVIEWS_*
// environment and explicit overrides, in increasing priority.
func Load(path string, overrides map[string]any) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REVIEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://vseotzyvy.ru")
	v.SetDefault("site.category_prefix", crawler.DefaultCategoryPrefix)
	v.SetDefault("site.page_param", crawler.DefaultPageParam)
	v.SetDefault("site.page_size", crawler.DefaultPageSize)
	v.SetDefault("site.object_selector", crawler.DefaultObjectSelector)
	v.SetDefault("site.review_link_selector", crawler.DefaultReviewLinkSelector)
	v.SetDefault("site.review_text_selector", crawler.DefaultReviewTextSelector)
	v.SetDefault("crawler.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("crawler.max_concurrency", 5)
	v.SetDefault("crawler.request_timeout", 30*time.Second)
	v.SetDefault("crawler.requests_per_second", 0)
	v.SetDefault("crawler.max_consecutive_failures", crawler.DefaultMaxConsecutiveFailures)
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("files.reviews_log", "reviews.txt")
	v.SetDefault("files.profanity_list", "mat_words.txt")
	v.SetDefault("files.checkpoint", "progress.txt")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "reviews.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.table", "reviews")
	v.SetDefault("storage.batch_rows", 500)
	v.SetDefault("checkpoint.backend", BackendFile)
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("archive.prefix", "review-logs")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute url, got %q", c.Site.BaseURL)
	}
	if !strings.HasPrefix(c.Site.CategoryPrefix, "/") {
		return errors.New("site.category_prefix must start with /")
	}
	if c.Site.PageSize <= 0 {
		return errors.New("site.page_size must be > 0")
	}
	if c.Crawler.MaxConcurrency <= 0 {
		return errors.New("crawler.max_concurrency must be > 0")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return errors.New("crawler.request_timeout must be > 0")
	}
	if c.Crawler.RequestsPerSecond < 0 {
		return errors.New("crawler.requests_per_second must be >= 0")
	}
	if c.Crawler.MaxConsecutiveFailures <= 0 {
		return errors.New("crawler.max_consecutive_failures must be > 0")
	}
	if strings.TrimSpace(c.Files.ProfanityList) == "" {
		return errors.New("files.profanity_list is required")
	}
	if strings.TrimSpace(c.Files.ReviewsLog) == "" {
		return errors.New("files.reviews_log is required")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Storage.Driver)
	}
	switch c.Checkpoint.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Files.Checkpoint) == "" {
			return errors.New("files.checkpoint is required for the file backend")
		}
	case BackendPG:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres checkpoint backend")
		}
	default:
		return fmt.Errorf("checkpoint.backend must be %q or %q, got %q", BackendFile, BackendPG, c.Checkpoint.Backend)
	}
	if c.PubSub.Topic != "" && c.PubSub.ProjectID == "" {
		return errors.New("pubsub.project_id must be set when pubsub.topic is set")
	}
	return nil
}

// EngineConfig converts the site and crawler sections into engine settings.
func (c Config) EngineConfig() crawler.Config {
	return crawler.Config{
		BaseURL:                c.Site.BaseURL,
		CategoryPrefix:         c.Site.CategoryPrefix,
		PageParam:              c.Site.PageParam,
		PageSize:               c.Site.PageSize,
		ObjectSelector:         c.Site.ObjectSelector,
		ReviewLinkSelector:     c.Site.ReviewLinkSelector,
		ReviewTextSelector:     c.Site.ReviewTextSelector,
		MaxConsecutiveFailures: c.Crawler.MaxConsecutiveFailures,
	}
}

// UsesPostgres reports whether any component needs a Postgres pool.
func (c Config) UsesPostgres() bool {
	return c.Storage.Driver == DriverPostgres || c.Checkpoint.Backend == BackendPG
}
