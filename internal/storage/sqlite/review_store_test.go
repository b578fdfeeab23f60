package sqlite

import (
	"context"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/review-crawler/internal/crawler"
)

func records(n int) []crawler.ReviewRecord {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out := make([]crawler.ReviewRecord, n)
	for i := range out {
		out[i] = crawler.ReviewRecord{
			Length:       15,
			Category:     "banks",
			ObjectURL:    "https://reviews.test/item/1",
			ReviewURL:    "https://reviews.test/review/" + string(rune('a'+i)),
			Text:         "this is xxx bad",
			HasProfanity: true,
			ScrapedAt:    now,
		}
	}
	return out
}

func newMockStore(t *testing.T, batchRows int) (*ReviewStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := NewWithDB(sqlx.NewDb(db, "sqlite3"), "reviews", batchRows)
	require.NoError(t, err)
	return s, mock
}

func driverArgs(recs []crawler.ReviewRecord) []driver.Value {
	var out []driver.Value
	for _, r := range recs {
		out = append(out, r.Length, r.Category, r.ObjectURL, r.ReviewURL, r.Text, r.HasProfanity, r.ScrapedAt)
	}
	return out
}

func TestSaveReviewsBulkInsert(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t, 2)
	recs := records(3)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(driverArgs(recs[:2])...).
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(driverArgs(recs[2:])...).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveReviews(context.Background(), recs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReviewsRollback(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t, 0)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err := s.SaveReviews(context.Background(), records(1))
	require.ErrorContains(t, err, "insert reviews")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReviewsEmpty(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t, 0)
	require.NoError(t, s.SaveReviews(context.Background(), []crawler.ReviewRecord{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaMock(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t, 0)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reviews").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithDBRejectsBadTable(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = NewWithDB(sqlx.NewDb(db, "sqlite3"), "bad-name", 0)
	require.Error(t, err)
	_, err = NewWithDB(nil, "", 0)
	require.Error(t, err)
}

func TestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "reviews.db"), BatchRows: 2})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.SaveReviews(ctx, records(5)))

	var count int
	require.NoError(t, s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM reviews WHERE has_profanity"))
	require.Equal(t, 5, count)

	got, err := s.Reviews(ctx)
	require.NoError(t, err)
	require.Len(t, got, 5)
	require.Equal(t, "https://reviews.test/review/e", got[4].ReviewURL)
	require.True(t, got[0].ScrapedAt.Equal(records(1)[0].ScrapedAt))
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}
