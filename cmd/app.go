package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/newsroom-kr/press-crawler/internal/archive/gcs"
	"github.com/newsroom-kr/press-crawler/internal/archive/local"
	"github.com/newsroom-kr/press-crawler/internal/config"
	"github.com/newsroom-kr/press-crawler/internal/crawler"
	"github.com/newsroom-kr/press-crawler/internal/crawler/feed"
	"github.com/newsroom-kr/press-crawler/internal/crawler/listing"
	"github.com/newsroom-kr/press-crawler/internal/fetcher"
	collyfetcher "github.com/newsroom-kr/press-crawler/internal/fetcher/colly"
	headlessfetcher "github.com/newsroom-kr/press-crawler/internal/fetcher/headless"
	"github.com/newsroom-kr/press-crawler/internal/logging"
	"github.com/newsroom-kr/press-crawler/internal/metrics"
	notifypubsub "github.com/newsroom-kr/press-crawler/internal/notify/pubsub"
	"github.com/newsroom-kr/press-crawler/internal/press"
	"github.com/newsroom-kr/press-crawler/internal/store"
	storememory "github.com/newsroom-kr/press-crawler/internal/store/memory"
	storepostgres "github.com/newsroom-kr/press-crawler/internal/store/postgres"
)

// app holds the wired service graph shared by the serve and crawl
// commands.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	releases store.ReleaseStore
	service  *crawler.Service
	closers  []func()
}

// Close releases resources in reverse construction order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// buildApp loads configuration and wires the full dependency graph.
func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	a := &app{cfg: cfg, logger: logger}

	releases, err := a.buildStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.releases = releases
	a.closers = append(a.closers, releases.Close)

	arch, err := a.buildArchive(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	crawlers, err := a.buildCrawlers(arch)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = crawler.NewService(crawlers, releases, publisher, logger)
	return a, nil
}

func (a *app) buildStore(ctx context.Context) (store.ReleaseStore, error) {
	if a.cfg.Store.DSN == "" {
		a.logger.Warn("No store DSN configured, using in-memory store")
		return storememory.NewReleaseStore(), nil
	}
	releases, err := storepostgres.NewReleaseStore(ctx, storepostgres.Config{
		DSN:             a.cfg.Store.DSN,
		MaxConns:        int32(a.cfg.Store.MaxConns),
		MinConns:        int32(a.cfg.Store.MinConns),
		MaxConnLifetime: a.cfg.Store.MaxConnLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres store: %w", err)
	}
	return releases, nil
}

func (a *app) buildArchive(ctx context.Context) (crawler.Archive, error) {
	switch a.cfg.Archive.Provider {
	case config.ArchiveNone:
		return nil, nil
	case config.ArchiveLocal:
		arch, err := local.New(local.Config{BaseDir: a.cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		return arch, nil
	case config.ArchiveGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init storage client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		arch, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return arch, nil
	default:
		return nil, fmt.Errorf("unknown archive provider %q", a.cfg.Archive.Provider)
	}
}

func (a *app) buildPublisher(ctx context.Context) (crawler.Publisher, error) {
	if a.cfg.PubSub.ProjectID == "" {
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	topic := client.Topic(a.cfg.PubSub.TopicName)
	a.closers = append(a.closers, topic.Stop)
	return notifypubsub.New(topic), nil
}

// buildCrawlers assembles one adapter per enabled source, in the fixed
// source order so runs are deterministic.
func (a *app) buildCrawlers(arch crawler.Archive) ([]crawler.Crawler, error) {
	pageFetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: a.cfg.Crawler.UserAgent,
		Timeout:   a.cfg.FetchTimeout(),
	})

	var crawlers []crawler.Crawler
	for _, source := range press.Sources() {
		src, ok := a.cfg.Sources[string(source)]
		if !ok || !src.Enabled {
			continue
		}

		f, err := a.sourceFetcher(src, pageFetcher)
		if err != nil {
			return nil, err
		}

		switch src.Mode {
		case config.ModeFeed:
			crawlers = append(crawlers, feed.New(feed.Config{
				Name:          fmt.Sprintf("%s-rss", source),
				Source:        source,
				FeedURL:       src.FeedURL,
				IDParam:       "newsId",
				ArchivePrefix: a.cfg.Archive.Prefix,
			}, f, arch, a.logger))
		case config.ModeListing:
			cfg := listingConfig(source)
			if src.ListingURL != "" {
				cfg.ListingURL = src.ListingURL
			}
			cfg.DetailDelay = a.cfg.DetailDelay()
			cfg.ArchivePrefix = a.cfg.Archive.Prefix
			c, err := listing.New(cfg, f, arch, a.logger)
			if err != nil {
				return nil, fmt.Errorf("init %s listing crawler: %w", source, err)
			}
			crawlers = append(crawlers, c)
		default:
			return nil, fmt.Errorf("unknown mode %q for source %s", src.Mode, source)
		}
	}
	return crawlers, nil
}

func (a *app) sourceFetcher(src config.SourceConfig, base fetcher.Fetcher) (fetcher.Fetcher, error) {
	if !src.Headless {
		return base, nil
	}
	headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		UserAgent:         a.cfg.Crawler.UserAgent,
		NavigationTimeout: a.cfg.FetchTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("init headless fetcher: %w", err)
	}
	a.closers = append(a.closers, headless.Close)
	return headless, nil
}

func listingConfig(source press.Source) listing.Config {
	if source == press.SourceKCC {
		return listing.KCCConfig()
	}
	return listing.MSITConfig()
}
