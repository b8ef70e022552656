// Package memory provides an in-memory ReleaseStore for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/newsroom-kr/press-crawler/internal/press"
	"github.com/newsroom-kr/press-crawler/internal/store"
)

// ReleaseStore keeps releases in a map keyed by (source, source_id).
type ReleaseStore struct {
	mu       sync.RWMutex
	releases map[string]press.Release
}

// NewReleaseStore constructs an empty store.
func NewReleaseStore() *ReleaseStore {
	return &ReleaseStore{
		releases: make(map[string]press.Release),
	}
}

// GetBySourceID fetches a release by its deduplication key.
func (s *ReleaseStore) GetBySourceID(_ context.Context, source press.Source, sourceID string) (press.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.releases[key(source, sourceID)]
	if !ok {
		return press.Release{}, store.ErrNotFound
	}
	return r, nil
}

// Upsert inserts or replaces the release with the same key.
func (s *ReleaseStore) Upsert(_ context.Context, release press.Release) (press.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases[key(release.Source, release.SourceID)] = release
	return release, nil
}

// List returns stored releases, newest first.
func (s *ReleaseStore) List(_ context.Context, filter store.Filter) ([]press.Release, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]press.Release, 0, len(s.releases))
	for _, r := range s.releases {
		if filter.Source != "" && r.Source != filter.Source {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *ReleaseStore) Close() {}

// Len reports how many releases are stored, for test assertions.
func (s *ReleaseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.releases)
}

func key(source press.Source, sourceID string) string {
	return string(source) + "/" + sourceID
}
