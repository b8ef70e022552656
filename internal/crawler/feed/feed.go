// Package feed implements the syndication-feed source adapter. One
// fetch retrieves the publisher's RSS document and normalizes its items
// into canonical releases.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/newsroom-kr/press-crawler/internal/archive"
	"github.com/newsroom-kr/press-crawler/internal/clock"
	"github.com/newsroom-kr/press-crawler/internal/crawler"
	"github.com/newsroom-kr/press-crawler/internal/crawler/clean"
	"github.com/newsroom-kr/press-crawler/internal/fetcher"
	"github.com/newsroom-kr/press-crawler/internal/metrics"
	"github.com/newsroom-kr/press-crawler/internal/press"
)

// Config describes one feed-backed publisher.
type Config struct {
	Name    string
	Source  press.Source
	FeedURL string
	// IDParam is the query parameter on item links that carries the
	// stable upstream identifier (e.g. "newsId" on korea.kr links).
	IDParam string
	// ArchivePrefix is where raw feed snapshots are stored.
	ArchivePrefix string
}

// Crawler fetches one publisher's syndication feed.
type Crawler struct {
	cfg     Config
	fetcher fetcher.Fetcher
	archive crawler.Archive
	parser  *gofeed.Parser
	logger  *zap.Logger
	clock   clock.Clock
}

// New builds a feed Crawler. The archive may be nil to disable snapshots.
func New(cfg Config, f fetcher.Fetcher, arch crawler.Archive, logger *zap.Logger) *Crawler {
	if arch == nil {
		arch = archive.Noop{}
	}
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "snapshots"
	}
	return &Crawler{
		cfg:     cfg,
		fetcher: f,
		archive: arch,
		parser:  gofeed.NewParser(),
		logger:  logger.With(zap.String("crawler", cfg.Name)),
		clock:   clock.System(),
	}
}

// Name returns the human-readable adapter name.
func (c *Crawler) Name() string { return c.cfg.Name }

// Source returns the publisher this adapter covers.
func (c *Crawler) Source() press.Source { return c.cfg.Source }

// Fetch retrieves the feed and returns up to limit normalized releases.
// Malformed single items are skipped with a warning; only a failure to
// fetch or parse the feed document itself returns an error.
func (c *Crawler) Fetch(ctx context.Context, limit int) ([]press.Release, error) {
	if limit <= 0 {
		return nil, nil
	}

	body, err := c.fetcher.Fetch(ctx, c.cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", c.cfg.FeedURL, err)
	}
	c.snapshot(ctx, body)

	parsed, err := c.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", c.cfg.FeedURL, err)
	}

	items := parsed.Items
	if len(items) > limit {
		items = items[:limit]
	}

	releases := make([]press.Release, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		release, ok := c.normalize(item)
		if !ok {
			continue
		}
		if seen[release.SourceID] {
			c.logger.Warn("Duplicate source id in feed, skipping", zap.String("source_id", release.SourceID))
			continue
		}
		seen[release.SourceID] = true
		releases = append(releases, release)
	}

	c.logger.Info("Fetched feed items", zap.Int("count", len(releases)))
	return releases, nil
}

func (c *Crawler) normalize(item *gofeed.Item) (press.Release, bool) {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	sourceID := clean.SourceID(link, c.cfg.IDParam)
	if sourceID == "" {
		c.logger.Warn("Feed item without usable id, skipping", zap.String("title", item.Title))
		return press.Release{}, false
	}

	title := clean.Text(item.Title)
	if title == "" {
		c.logger.Warn("Feed item without title, skipping", zap.String("source_id", sourceID))
		return press.Release{}, false
	}

	publishedAt := c.publishedAt(item, sourceID)

	content := item.Content
	if content == "" {
		content = item.Description
	}

	return press.Release{
		Source:      c.cfg.Source,
		SourceID:    sourceID,
		Title:       title,
		Content:     clean.Text(content),
		PublishedAt: publishedAt,
		URL:         link,
		Category:    firstCategory(item.Categories),
	}, true
}

// publishedAt prefers the feed's parsed timestamp, then the raw pubDate
// string, and finally falls back to the current time with a warning.
func (c *Crawler) publishedAt(item *gofeed.Item, sourceID string) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.Published != "" {
		if t, err := clean.ParseDate(item.Published); err == nil {
			return t
		}
	}
	c.logger.Warn("Unparseable publish date, using current time",
		zap.String("source_id", sourceID),
		zap.String("raw", item.Published),
	)
	metrics.ObserveDateFallback(string(c.cfg.Source))
	return c.clock.Now()
}

func (c *Crawler) snapshot(ctx context.Context, body []byte) {
	path := archive.ObjectPath(c.cfg.ArchivePrefix, string(c.cfg.Source), c.clock.Now(), body, "xml")
	if _, err := c.archive.PutObject(ctx, path, "application/xml", bytes.NewReader(body)); err != nil {
		c.logger.Warn("Archive feed snapshot failed", zap.Error(err))
	}
}

func firstCategory(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return clean.Text(categories[0])
}
