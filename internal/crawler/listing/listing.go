// Package listing implements the HTML listing-page source adapter. One
// fetch retrieves a publisher's board listing, walks its rows, and pulls
// each row's detail page for the full body and attachments.
package listing

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/newsroom-kr/press-crawler/internal/archive"
	"github.com/newsroom-kr/press-crawler/internal/clock"
	"github.com/newsroom-kr/press-crawler/internal/crawler"
	"github.com/newsroom-kr/press-crawler/internal/crawler/clean"
	"github.com/newsroom-kr/press-crawler/internal/fetcher"
	"github.com/newsroom-kr/press-crawler/internal/metrics"
	"github.com/newsroom-kr/press-crawler/internal/press"
)

// DefaultDetailDelay is the pause between detail-page fetches.
const DefaultDetailDelay = 500 * time.Millisecond

// Selectors locates release fields in a publisher's markup. Listing
// selectors apply within a row; detail selectors within the detail page.
type Selectors struct {
	Rows        string
	TitleLink   string
	Date        string
	Category    string
	Content     string
	Department  string
	Author      string
	Attachments string
}

// Config describes one listing-backed publisher.
type Config struct {
	Name       string
	Source     press.Source
	ListingURL string
	// IDParam is the query parameter on detail links that carries the
	// stable upstream identifier (e.g. "nttSeqNo").
	IDParam   string
	Selectors Selectors
	// DetailDelay overrides the pause between detail fetches.
	DetailDelay   time.Duration
	ArchivePrefix string
}

// MSITConfig returns the adapter configuration for the Ministry of
// Science and ICT press-release board.
func MSITConfig() Config {
	return Config{
		Name:       "MSIT Crawler",
		Source:     press.SourceMSIT,
		ListingURL: "https://www.msit.go.kr/bbs/list.do?sCode=user&mPid=208&mId=307",
		IDParam:    "nttSeqNo",
		Selectors: Selectors{
			Rows:        ".board-list tbody tr",
			TitleLink:   ".subject a, .title a",
			Date:        ".date, .regdate",
			Category:    ".category",
			Content:     ".board-view-content, .view-content",
			Department:  ".department",
			Author:      ".author, .writer",
			Attachments: ".attach-file a, .file-list a",
		},
	}
}

// KCCConfig returns the adapter configuration for the Korea
// Communications Commission press-release board.
func KCCConfig() Config {
	return Config{
		Name:       "KCC Crawler",
		Source:     press.SourceKCC,
		ListingURL: "https://www.kcc.go.kr/user.do?boardId=1113&page=A05030000&dc=K05030000",
		IDParam:    "boardSeq",
		Selectors: Selectors{
			Rows:        ".board-list tbody tr, .list-table tbody tr",
			TitleLink:   ".subject a, .title a, td a",
			Date:        ".date, .regdate, td:last-child",
			Category:    ".category, .type",
			Content:     ".board-view-content, .view-content, .contents",
			Department:  ".department, .deptname",
			Author:      ".author, .writer, .username",
			Attachments: ".attach-file a, .file-list a, .attach a",
		},
	}
}

// Crawler fetches one publisher's board listing.
type Crawler struct {
	cfg     Config
	base    *url.URL
	fetcher fetcher.Fetcher
	archive crawler.Archive
	logger  *zap.Logger
	clock   clock.Clock
	sleep   func(ctx context.Context, d time.Duration) error
}

// New builds a listing Crawler. The archive may be nil to disable
// snapshots.
func New(cfg Config, f fetcher.Fetcher, arch crawler.Archive, logger *zap.Logger) (*Crawler, error) {
	base, err := url.Parse(cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url %s: %w", cfg.ListingURL, err)
	}
	if arch == nil {
		arch = archive.Noop{}
	}
	if cfg.DetailDelay <= 0 {
		cfg.DetailDelay = DefaultDetailDelay
	}
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "snapshots"
	}
	return &Crawler{
		cfg:     cfg,
		base:    base,
		fetcher: f,
		archive: arch,
		logger:  logger.With(zap.String("crawler", cfg.Name)),
		clock:   clock.System(),
		sleep:   sleepContext,
	}, nil
}

// Name returns the human-readable adapter name.
func (c *Crawler) Name() string { return c.cfg.Name }

// Source returns the publisher this adapter covers.
func (c *Crawler) Source() press.Source { return c.cfg.Source }

// Fetch retrieves the listing page and returns up to limit normalized
// releases in listing order. Rows missing a title or link are dropped;
// an unreachable detail page degrades to listing-only fields.
func (c *Crawler) Fetch(ctx context.Context, limit int) ([]press.Release, error) {
	if limit <= 0 {
		return nil, nil
	}

	body, err := c.fetcher.Fetch(ctx, c.cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", c.cfg.ListingURL, err)
	}
	c.snapshot(ctx, body)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", c.cfg.ListingURL, err)
	}

	rows := doc.Find(c.cfg.Selectors.Rows)
	if rows.Length() > limit {
		rows = rows.Slice(0, limit)
	}

	releases := make([]press.Release, 0, rows.Length())
	seen := make(map[string]bool, rows.Length())
	var walkErr error
	// The pause sits between detail fetches, never after the last one.
	pending := false
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if err := ctx.Err(); err != nil {
			walkErr = err
			return false
		}
		if pending {
			if err := c.sleep(ctx, c.cfg.DetailDelay); err != nil {
				walkErr = err
				return false
			}
			pending = false
		}

		release, ok := c.normalizeRow(ctx, i, row)
		if !ok {
			return true
		}
		pending = true
		if seen[release.SourceID] {
			c.logger.Warn("Duplicate source id in listing, skipping", zap.String("source_id", release.SourceID))
			return true
		}
		seen[release.SourceID] = true
		releases = append(releases, release)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	c.logger.Info("Fetched listing rows", zap.Int("count", len(releases)))
	return releases, nil
}

func (c *Crawler) normalizeRow(ctx context.Context, index int, row *goquery.Selection) (press.Release, bool) {
	anchor := row.Find(c.cfg.Selectors.TitleLink).First()
	title := clean.Text(anchor.Text())
	href, _ := anchor.Attr("href")
	if title == "" || href == "" {
		c.logger.Warn("Listing row without title or link, skipping", zap.Int("row", index))
		return press.Release{}, false
	}

	detailURL := c.resolveURL(href)
	sourceID := clean.SourceID(detailURL, c.cfg.IDParam)
	if sourceID == "" {
		c.logger.Warn("Listing row without usable id, skipping", zap.String("url", detailURL))
		return press.Release{}, false
	}

	publishedAt := c.publishedAt(sourceID, clean.Text(row.Find(c.cfg.Selectors.Date).First().Text()))
	category := clean.Text(row.Find(c.cfg.Selectors.Category).First().Text())
	detail := c.fetchDetail(ctx, detailURL)

	return press.Release{
		Source:      c.cfg.Source,
		SourceID:    sourceID,
		Title:       title,
		Content:     detail.content,
		PublishedAt: publishedAt,
		URL:         detailURL,
		Category:    category,
		Department:  detail.department,
		Author:      detail.author,
		Attachments: detail.attachments,
	}, true
}

type detailFields struct {
	content     string
	department  string
	author      string
	attachments []press.Attachment
}

// fetchDetail pulls the detail page for one row. Failures degrade to
// empty fields rather than dropping the row.
func (c *Crawler) fetchDetail(ctx context.Context, detailURL string) detailFields {
	body, err := c.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		c.logger.Warn("Fetch detail page failed", zap.String("url", detailURL), zap.Error(err))
		return detailFields{}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("Parse detail page failed", zap.String("url", detailURL), zap.Error(err))
		return detailFields{}
	}

	var attachments []press.Attachment
	doc.Find(c.cfg.Selectors.Attachments).Each(func(_ int, a *goquery.Selection) {
		name := clean.Text(a.Text())
		href, _ := a.Attr("href")
		if name == "" || href == "" {
			return
		}
		attachments = append(attachments, press.Attachment{
			Name: name,
			URL:  c.resolveURL(href),
		})
	})

	return detailFields{
		content:     clean.Text(doc.Find(c.cfg.Selectors.Content).First().Text()),
		department:  clean.Text(doc.Find(c.cfg.Selectors.Department).First().Text()),
		author:      clean.Text(doc.Find(c.cfg.Selectors.Author).First().Text()),
		attachments: attachments,
	}
}

func (c *Crawler) publishedAt(sourceID, raw string) time.Time {
	if raw != "" {
		if t, err := clean.ParseDate(raw); err == nil {
			return t
		}
	}
	c.logger.Warn("Unparseable publish date, using current time",
		zap.String("source_id", sourceID),
		zap.String("raw", raw),
	)
	metrics.ObserveDateFallback(string(c.cfg.Source))
	return c.clock.Now()
}

func (c *Crawler) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return c.base.ResolveReference(ref).String()
}

func (c *Crawler) snapshot(ctx context.Context, body []byte) {
	path := archive.ObjectPath(c.cfg.ArchivePrefix, string(c.cfg.Source), c.clock.Now(), body, "html")
	if _, err := c.archive.PutObject(ctx, path, "text/html; charset=utf-8", bytes.NewReader(body)); err != nil {
		c.logger.Warn("Archive listing snapshot failed", zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
