// Package gcs archives the review text log to Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

const contentType = "text/plain; charset=utf-8"

// Config names the destination bucket and object prefix.
type Config struct {
	Bucket string
	Prefix string
}

// WriterFunc opens a writer for object in the configured bucket.
type WriterFunc func(ctx context.Context, object string) io.WriteCloser

// Archiver uploads local files under Prefix/<runID>/.
type Archiver struct {
	bucket    string
	prefix    string
	newWriter WriterFunc
}

// New builds an Archiver on a storage client.
func New(client *storage.Client, cfg Config) (*Archiver, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	bucket := client.Bucket(cfg.Bucket)
	return NewWithWriter(cfg, func(ctx context.Context, object string) io.WriteCloser {
		w := bucket.Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	})
}

// NewWithWriter builds an Archiver with a custom writer factory.
func NewWithWriter(cfg Config, newWriter WriterFunc) (*Archiver, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("bucket name is required")
	}
	if newWriter == nil {
		return nil, errors.New("writer factory is required")
	}
	return &Archiver{
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		newWriter: newWriter,
	}, nil
}

// ObjectName returns the object path used for localPath in run runID.
func (a *Archiver) ObjectName(runID, localPath string) string {
	return path.Join(a.prefix, runID, filepath.Base(localPath))
}

// Archive copies localPath to the bucket and returns its gs:// URI.
func (a *Archiver) Archive(ctx context.Context, runID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open archive source: %w", err)
	}
	defer f.Close()

	object := a.ObjectName(runID, localPath)
	writer := a.newWriter(ctx, object)
	if _, err := io.Copy(writer, f); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, object), nil
}
