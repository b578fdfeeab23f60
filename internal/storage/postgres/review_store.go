package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

const (
	defaultTable     = "reviews"
	defaultBatchRows = 500
	reviewColumns    = 7
)

// ReviewStore writes review batches into one table.
type ReviewStore struct {
	pool      pool
	table     string
	batchRows int
}

// NewReviewStore builds a ReviewStore over p. batchRows caps the rows per
// INSERT statement.
func NewReviewStore(p pool, table string, batchRows int) (*ReviewStore, error) {
	if p == nil {
		return nil, errors.New("pool is required")
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
	return &ReviewStore{pool: p, table: table, batchRows: batchRows}, nil
}

// EnsureSchema creates the reviews table if it does not exist.
func (s *ReviewStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	length INTEGER NOT NULL,
	category TEXT NOT NULL,
	object_url TEXT NOT NULL,
	review_url TEXT NOT NULL,
	text TEXT NOT NULL,
	has_profanity BOOLEAN NOT NULL DEFAULT FALSE,
	scraped_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create reviews table: %w", err)
	}
	return nil
}

// SaveReviews inserts records in one transaction. An empty slice is a no-op.
func (s *ReviewStore) SaveReviews(ctx context.Context, records []crawler.ReviewRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin review batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for start := 0; start < len(records); start += s.batchRows {
		end := min(start+s.batchRows, len(records))
		if err = s.insertChunk(ctx, tx, records[start:end]); err != nil {
			return err
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit review batch: %w", err)
	}
	return nil
}

func (s *ReviewStore) insertChunk(ctx context.Context, tx pgx.Tx, records []crawler.ReviewRecord) error {
	query, args := insertStatement(s.table, records)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reviews: %w", err)
	}
	return nil
}

func insertStatement(table string, records []crawler.ReviewRecord) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (length, category, object_url, review_url, text, has_profanity, scraped_at) VALUES ", table)
	args := make([]any, 0, len(records)*reviewColumns)
	for i, rec := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * reviewColumns
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7)
		args = append(args,
			rec.Length,
			rec.Category,
			rec.ObjectURL,
			rec.ReviewURL,
			rec.Text,
			rec.HasProfanity,
			rec.ScrapedAt,
		)
	}
	return b.String(), args
}

var _ crawler.ReviewStore = (*ReviewStore)(nil)
