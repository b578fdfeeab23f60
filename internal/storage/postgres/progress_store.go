package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

// ProgressStore keeps the crawl checkpoint in a single-row table.
type ProgressStore struct {
	pool pool
}

// NewProgressStore builds a ProgressStore over p.
func NewProgressStore(p pool) (*ProgressStore, error) {
	if p == nil {
		return nil, errors.New("pool is required")
	}
	return &ProgressStore{pool: p}, nil
}

// EnsureSchema creates the checkpoint table if it does not exist.
func (s *ProgressStore) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS crawl_progress (
	id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	category_index INTEGER NOT NULL,
	next_object INTEGER NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create progress table: %w", err)
	}
	return nil
}

// Load returns the stored checkpoint, or the zero checkpoint when none is
// stored.
func (s *ProgressStore) Load(ctx context.Context) (crawler.Checkpoint, error) {
	var cp crawler.Checkpoint
	err := s.pool.QueryRow(ctx,
		`SELECT category_index, next_object FROM crawl_progress WHERE id = 1`,
	).Scan(&cp.Category, &cp.Object)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawler.Checkpoint{}, nil
	}
	if err != nil {
		return crawler.Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	return cp, nil
}

// Save upserts the checkpoint.
func (s *ProgressStore) Save(ctx context.Context, cp crawler.Checkpoint) error {
	query := `
INSERT INTO crawl_progress (id, category_index, next_object, updated_at)
VALUES (1, $1, $2, now())
ON CONFLICT (id) DO UPDATE
SET category_index = EXCLUDED.category_index,
	next_object = EXCLUDED.next_object,
	updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, query, cp.Category, cp.Object); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Reset removes the stored checkpoint.
func (s *ProgressStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM crawl_progress`); err != nil {
		return fmt.Errorf("reset checkpoint: %w", err)
	}
	return nil
}

var _ crawler.CheckpointStore = (*ProgressStore)(nil)
