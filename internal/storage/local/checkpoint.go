// Package local keeps the crawl checkpoint in a small text file.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

// ErrCorruptCheckpoint is returned when the file cannot be parsed.
var ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

// CheckpointFile stores "<category+1>,<next object>" on a single line. The
// first field is 1-based; the second is the 0-based index of the next object,
// which equals the 1-based position of the last completed one.
type CheckpointFile struct {
	path string
}

// NewCheckpointFile returns a store backed by path.
func NewCheckpointFile(path string) (*CheckpointFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("checkpoint path is required")
	}
	return &CheckpointFile{path: path}, nil
}

// Path returns the file location.
func (c *CheckpointFile) Path() string { return c.path }

// Load reads the checkpoint. A missing file yields the zero checkpoint.
func (c *CheckpointFile) Load(_ context.Context) (crawler.Checkpoint, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return crawler.Checkpoint{}, nil
	}
	if err != nil {
		return crawler.Checkpoint{}, fmt.Errorf("read checkpoint: %w", err)
	}
	return parse(strings.TrimSpace(string(data)))
}

func parse(line string) (crawler.Checkpoint, error) {
	catField, objField, ok := strings.Cut(line, ",")
	if !ok {
		return crawler.Checkpoint{}, fmt.Errorf("%w: %q", ErrCorruptCheckpoint, line)
	}
	cat, err := strconv.Atoi(strings.TrimSpace(catField))
	if err != nil || cat < 1 {
		return crawler.Checkpoint{}, fmt.Errorf("%w: category %q", ErrCorruptCheckpoint, catField)
	}
	obj, err := strconv.Atoi(strings.TrimSpace(objField))
	if err != nil || obj < 0 {
		return crawler.Checkpoint{}, fmt.Errorf("%w: object %q", ErrCorruptCheckpoint, objField)
	}
	return crawler.Checkpoint{Category: cat - 1, Object: obj}, nil
}

// Save replaces the file atomically.
func (c *CheckpointFile) Save(_ context.Context, cp crawler.Checkpoint) error {
	if cp.Category < 0 || cp.Object < 0 {
		return fmt.Errorf("invalid checkpoint %+v", cp)
	}
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := fmt.Fprintf(tmp, "%d,%d", cp.Category+1, cp.Object); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Reset deletes the file. A missing file is not an error.
func (c *CheckpointFile) Reset(_ context.Context) error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

var _ crawler.CheckpointStore = (*CheckpointFile)(nil)
