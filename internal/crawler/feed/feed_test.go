package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	archivememory "github.com/newsroom-kr/press-crawler/internal/archive/memory"
	"github.com/newsroom-kr/press-crawler/internal/clock"
	"github.com/newsroom-kr/press-crawler/internal/fetcher"
	"github.com/newsroom-kr/press-crawler/internal/press"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>MSIT Press Releases</title>
    <item>
      <title>First &amp; Foremost</title>
      <link>https://www.korea.kr/news/view.do?newsId=148001</link>
      <description>&lt;p&gt;Body one&lt;/p&gt;</description>
      <category>Policy</category>
      <pubDate>Mon, 02 Jun 2025 09:00:00 +0900</pubDate>
    </item>
    <item>
      <title>Second release</title>
      <link>https://www.korea.kr/news/view.do?newsId=148002</link>
      <description>Body two</description>
      <pubDate>not a date</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://www.korea.kr/news/view.do?newsId=148003</link>
      <description>No title, should be dropped</description>
    </item>
    <item>
      <title>Duplicate of first</title>
      <link>https://www.korea.kr/news/view.do?newsId=148001</link>
      <description>Same id, should be dropped</description>
    </item>
  </channel>
</rss>`

func fixedFetcher(body string) fetcher.Fetcher {
	return fetcher.Func(func(ctx context.Context, url string) ([]byte, error) {
		return []byte(body), nil
	})
}

func newTestCrawler(t *testing.T, f fetcher.Fetcher) (*Crawler, *archivememory.BlobStore) {
	t.Helper()
	arch := archivememory.New()
	c := New(Config{
		Name:    "msit-rss",
		Source:  press.SourceMSIT,
		FeedURL: "https://example.test/feed.xml",
		IDParam: "newsId",
	}, f, arch, zap.NewNop())
	c.clock = clock.Fixed(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	return c, arch
}

func TestFetchNormalizesItems(t *testing.T) {
	c, _ := newTestCrawler(t, fixedFetcher(sampleFeed))

	releases, err := c.Fetch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, releases, 2)

	first := releases[0]
	assert.Equal(t, press.SourceMSIT, first.Source)
	assert.Equal(t, "148001", first.SourceID)
	assert.Equal(t, "First & Foremost", first.Title)
	assert.Equal(t, "Body one", first.Content)
	assert.Equal(t, "Policy", first.Category)
	assert.Equal(t, "https://www.korea.kr/news/view.do?newsId=148001", first.URL)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), first.PublishedAt.UTC().Truncate(24*time.Hour))
}

func TestFetchDateFallback(t *testing.T) {
	c, _ := newTestCrawler(t, fixedFetcher(sampleFeed))

	releases, err := c.Fetch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, releases, 2)

	// Second item carries an unparseable pubDate, so the pinned clock wins.
	assert.Equal(t, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), releases[1].PublishedAt)
}

func TestFetchHonorsLimit(t *testing.T) {
	c, _ := newTestCrawler(t, fixedFetcher(sampleFeed))

	releases, err := c.Fetch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "148001", releases[0].SourceID)

	releases, err = c.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, releases)
}

func TestFetchArchivesSnapshot(t *testing.T) {
	c, arch := newTestCrawler(t, fixedFetcher(sampleFeed))

	_, err := c.Fetch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, arch.Len())
}

func TestFetchError(t *testing.T) {
	boom := errors.New("connection refused")
	c, _ := newTestCrawler(t, fetcher.Func(func(ctx context.Context, url string) ([]byte, error) {
		return nil, boom
	}))

	releases, err := c.Fetch(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, releases)
}

func TestFetchBadDocument(t *testing.T) {
	c, _ := newTestCrawler(t, fixedFetcher("this is not xml at all {"))

	_, err := c.Fetch(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse feed")
}

func TestNameAndSource(t *testing.T) {
	c, _ := newTestCrawler(t, fixedFetcher(sampleFeed))
	assert.Equal(t, "msit-rss", c.Name())
	assert.Equal(t, press.SourceMSIT, c.Source())
}
