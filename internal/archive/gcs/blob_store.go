// Package gcs provides a snapshot archive backed by Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
}

// BlobStore writes document snapshots to a configured GCS bucket.
type BlobStore struct {
	bucket *storage.BucketHandle
	name   string
}

// New creates a GCS-backed snapshot archive.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	name := strings.TrimSpace(cfg.Bucket)
	if name == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		bucket: client.Bucket(name),
		name:   name,
	}, nil
}

// PutObject uploads a snapshot to the configured bucket and returns its
// gs:// URI.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("snapshot path is required")
	}

	w := s.bucket.Object(path).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("commit snapshot %s: %w", path, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.name, path), nil
}
