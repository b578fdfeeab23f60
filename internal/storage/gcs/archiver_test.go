package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type bufferWriter struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (w *bufferWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestArchiveUploadsFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "reviews.txt")
	require.NoError(t, os.WriteFile(src, []byte("Rephrased Text: hi\n"), 0o600))

	got := map[string]*bufferWriter{}
	a, err := NewWithWriter(Config{Bucket: "bucket", Prefix: "/review-logs/"}, func(_ context.Context, object string) io.WriteCloser {
		w := &bufferWriter{}
		got[object] = w
		return w
	})
	require.NoError(t, err)

	uri, err := a.Archive(context.Background(), "run-1", src)
	require.NoError(t, err)
	require.Equal(t, "gs://bucket/review-logs/run-1/reviews.txt", uri)
	w := got["review-logs/run-1/reviews.txt"]
	require.NotNil(t, w)
	require.True(t, w.closed)
	require.Equal(t, "Rephrased Text: hi\n", w.String())
}

func TestArchiveCloseError(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "reviews.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
	a, err := NewWithWriter(Config{Bucket: "bucket"}, func(context.Context, string) io.WriteCloser {
		return &bufferWriter{closeErr: errors.New("quota")}
	})
	require.NoError(t, err)

	_, err = a.Archive(context.Background(), "run-1", src)
	require.ErrorContains(t, err, "close writer")
}

func TestArchiveMissingSource(t *testing.T) {
	t.Parallel()

	a, err := NewWithWriter(Config{Bucket: "bucket"}, func(context.Context, string) io.WriteCloser {
		return &bufferWriter{}
	})
	require.NoError(t, err)
	_, err = a.Archive(context.Background(), "run-1", filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)
	_, err = NewWithWriter(Config{}, func(context.Context, string) io.WriteCloser { return &bufferWriter{} })
	require.Error(t, err)
	_, err = NewWithWriter(Config{Bucket: "b"}, nil)
	require.Error(t, err)
}
