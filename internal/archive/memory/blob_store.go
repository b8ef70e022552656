// Package memory provides an in-memory snapshot archive for tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// BlobStore keeps snapshots in a map keyed by object path.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New constructs an empty BlobStore.
func New() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

// PutObject records the data under the given path and returns a mem:// URI.
func (s *BlobStore) PutObject(_ context.Context, path string, _ string, data io.Reader) (string, error) {
	body, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read snapshot data: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = body
	return fmt.Sprintf("mem://%s", path), nil
}

// Object returns a stored snapshot body.
func (s *BlobStore) Object(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.objects[path]
	return body, ok
}

// Len reports the number of stored snapshots.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
