package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/review-crawler/internal/app"
	"github.com/JakeFAU/review-crawler/internal/config"
	"github.com/JakeFAU/review-crawler/internal/crawler"
	"github.com/JakeFAU/review-crawler/internal/publisher/memory"
	"github.com/JakeFAU/review-crawler/internal/storage/sqlite"
	"github.com/JakeFAU/review-crawler/internal/textlog"
)

// reviewSite serves a tiny copy of the review site layout.
func reviewSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/":                      `<a href="/category/banks">Banks</a><a href="/about">About</a>`,
		"/category/banks?page=1": `<a href="/item/1" title="Bank one">1</a><a href="/item/2" title="Bank two">2</a>`,
		"/category/banks?page=2": ``,
		"/item/1?page=1":         `<a class="r_space" href="/review/1">r</a><a class="r_space" href="/review/2">r</a>`,
		"/item/1?page=2":         ``,
		"/item/2?page=1":         `<a class="r_space" href="/review/3">r</a>`,
		"/item/2?page=2":         ``,
		"/review/1":              review("Great service"),
		"/review/2":              review("this is xxx bad"),
		"/review/3":              review("Great service"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		body, ok := pages[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func review(text string) string {
	return `<span class="description line-height-comfort">` + text + `</span>`
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	words := filepath.Join(dir, "mat_words.txt")
	require.NoError(t, os.WriteFile(words, []byte("xxx\n"), 0o600))
	cfg, err := config.Load("", map[string]any{
		"site.base_url":           baseURL,
		"files.profanity_list":    words,
		"files.reviews_log":       filepath.Join(dir, "reviews.txt"),
		"files.checkpoint":        filepath.Join(dir, "progress.txt"),
		"storage.sqlite_path":     filepath.Join(dir, "reviews.db"),
		"crawler.request_timeout": "5s",
	})
	require.NoError(t, err)
	return cfg
}

func TestAppCrawlsAndResumes(t *testing.T) {
	t.Parallel()

	srv := reviewSite(t)
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	events := memory.New()
	a, err := app.New(ctx, cfg, nil, app.WithNotifier(events))
	require.NoError(t, err)
	require.NotEmpty(t, a.RunID())
	require.NoError(t, a.Run(ctx))
	require.NoError(t, a.Close())

	seen, err := textlog.Seed(cfg.Files.ReviewsLog)
	require.NoError(t, err)
	require.Equal(t, map[string]struct{}{"Great service": {}, "this is xxx bad": {}}, seen)

	checkpoint, err := os.ReadFile(cfg.Files.Checkpoint)
	require.NoError(t, err)
	require.Equal(t, "1,2", string(checkpoint))

	got := events.Events()
	require.Len(t, got, 2)
	require.Equal(t, 2, got[0].Reviews)
	require.Equal(t, 0, got[1].Reviews)
	require.Equal(t, a.RunID(), got[0].RunID)

	require.Equal(t, 2, countReviews(t, cfg))

	// a second run resumes past both objects and stores nothing new
	again := memory.New()
	b, err := app.New(ctx, cfg, nil, app.WithNotifier(again))
	require.NoError(t, err)
	require.NoError(t, b.Run(ctx))
	require.NoError(t, b.Close())
	require.Empty(t, again.Events())
	require.Equal(t, 2, countReviews(t, cfg))
}

func countReviews(t *testing.T, cfg config.Config) int {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Storage.SQLitePath})
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.Reviews(ctx)
	require.NoError(t, err)
	var profane int
	for _, rec := range recs {
		if rec.HasProfanity {
			profane++
		}
	}
	require.Equal(t, 1, profane)
	return len(recs)
}

func TestAppMissingProfanityListIsFatal(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://reviews.test")
	cfg.Files.ProfanityList = filepath.Join(t.TempDir(), "absent.txt")
	_, err := app.New(context.Background(), cfg, nil)
	require.ErrorContains(t, err, "load profanity list")
}

func TestAppUnreachableRoot(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := testConfig(t, srv.URL)
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	err = a.Run(context.Background())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "discover categories"))
	require.NoError(t, a.Close())
}

func TestOpenProgressFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "https://reviews.test")
	store, release, err := app.OpenProgress(context.Background(), cfg)
	require.NoError(t, err)
	defer release()

	require.NoError(t, store.Save(context.Background(), crawler.Checkpoint{Category: 0, Object: 3}))
	cp, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, crawler.Checkpoint{Category: 0, Object: 3}, cp)
	require.NoError(t, store.Reset(context.Background()))
}
