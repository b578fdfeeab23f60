// Package sqlite stores review batches in a local SQLite database.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	// registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

const (
	defaultTable     = "reviews"
	defaultBatchRows = 500
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config selects the database file and table.
type Config struct {
	Path      string
	Table     string
	BatchRows int
}

// ReviewStore writes review batches with sqlx named bulk inserts.
type ReviewStore struct {
	db        *sqlx.DB
	table     string
	batchRows int
}

// Open connects to the database file at cfg.Path.
func Open(ctx context.Context, cfg Config) (*ReviewStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage.sqlite_path is required")
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	s, err := NewWithDB(db, cfg.Table, cfg.BatchRows)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sqlx.DB, table string, batchRows int) (*ReviewStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if batchRows <= 0 {
		batchRows = defaultBatchRows
	}
	return &ReviewStore{db: db, table: table, batchRows: batchRows}, nil
}

// Close releases the database handle.
func (s *ReviewStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// EnsureSchema creates the reviews table if it does not exist.
func (s *ReviewStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	length INTEGER,
	category TEXT,
	object_url TEXT,
	review_url TEXT,
	text TEXT,
	has_profanity BOOLEAN,
	scraped_at DATETIME
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create reviews table: %w", err)
	}
	return nil
}

// SaveReviews inserts records in one transaction. An empty slice is a no-op.
func (s *ReviewStore) SaveReviews(ctx context.Context, records []crawler.ReviewRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`INSERT INTO %s (length, category, object_url, review_url, text, has_profanity, scraped_at)
VALUES (:length, :category, :object_url, :review_url, :text, :has_profanity, :scraped_at)`, s.table)
	for start := 0; start < len(records); start += s.batchRows {
		end := min(start+s.batchRows, len(records))
		if _, err = tx.NamedExecContext(ctx, query, records[start:end]); err != nil {
			return fmt.Errorf("insert reviews: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review batch: %w", err)
	}
	return nil
}

// Reviews returns every stored record in insertion order.
func (s *ReviewStore) Reviews(ctx context.Context) ([]crawler.ReviewRecord, error) {
	var out []crawler.ReviewRecord
	query := fmt.Sprintf(`SELECT length, category, object_url, review_url, text, has_profanity, scraped_at
FROM %s ORDER BY id`, s.table)
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("select reviews: %w", err)
	}
	return out, nil
}

var _ crawler.ReviewStore = (*ReviewStore)(nil)
