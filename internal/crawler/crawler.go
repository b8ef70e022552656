// Package crawler contains the source adapter contract and the
// reconciliation service that runs every adapter against the store.
package crawler

import (
	"context"
	"io"

	"github.com/newsroom-kr/press-crawler/internal/press"
)

// Crawler fetches and normalizes announcements from one external source.
// Fetch returns at most limit releases in upstream order, with no
// duplicate source IDs within one call. A malformed single item never
// fails the call; only a top-level fetch or parse failure returns an
// error.
type Crawler interface {
	Fetch(ctx context.Context, limit int) ([]press.Release, error)
	Name() string
	Source() press.Source
}

// Publisher announces newly ingested releases to downstream consumers.
// Publishing is best effort; the reconciliation run does not depend on it.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Archive persists raw upstream documents for debugging and replay.
type Archive interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
