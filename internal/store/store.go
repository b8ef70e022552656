// Package store defines the interface for persisting press releases.
// By using an interface, we decouple the reconciliation service from a
// specific database implementation, allowing test doubles and a local
// in-memory mode alongside the production Postgres backend.
package store

import (
	"context"
	"errors"

	"github.com/newsroom-kr/press-crawler/internal/press"
)

// ErrNotFound is returned by GetBySourceID when no record carries the
// requested (source, source_id) key.
var ErrNotFound = errors.New("release not found")

// Filter narrows a List call.
type Filter struct {
	Source press.Source
	Limit  int
}

// ReleaseStore is the persistence contract consumed by the crawl
// service. Upsert is keyed by (source, source_id): two writes with the
// same key update one row, never create a second.
type ReleaseStore interface {
	// GetBySourceID fetches a single release by its deduplication key.
	GetBySourceID(ctx context.Context, source press.Source, sourceID string) (press.Release, error)

	// Upsert inserts the release or updates the existing row with the
	// same (source, source_id) key. The stored release is returned.
	Upsert(ctx context.Context, release press.Release) (press.Release, error)

	// List returns stored releases, newest first. It is the read path
	// for downstream consumers; reconciliation never uses it.
	List(ctx context.Context, filter Filter) ([]press.Release, error)

	// Close releases any underlying resources.
	Close()
}
