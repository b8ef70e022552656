package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newsroom-kr/press-crawler/internal/metrics"
	"github.com/newsroom-kr/press-crawler/internal/press"
	"github.com/newsroom-kr/press-crawler/internal/store"
)

// NewReleaseTopic is the topic new-release notifications are published to.
const NewReleaseTopic = "press-release-new"

// Service reconciles adapter output against the release store. All
// dependencies are injected at construction so the trigger layers
// (HTTP, scheduler, CLI) share one instance and tests can substitute
// doubles for the store and publisher.
type Service struct {
	crawlers  []Crawler
	releases  store.ReleaseStore
	publisher Publisher
	logger    *zap.Logger
	clock     func() time.Time
}

// NewService constructs a Service. The publisher is optional; pass nil
// to disable new-release notifications.
func NewService(
	crawlers []Crawler,
	releases store.ReleaseStore,
	publisher Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		crawlers:  crawlers,
		releases:  releases,
		publisher: publisher,
		logger:    logger,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// Crawlers returns the registered adapters in execution order.
func (s *Service) Crawlers() []Crawler {
	out := make([]Crawler, len(s.crawlers))
	copy(out, s.crawlers)
	return out
}

// CrawlerBySource finds the adapter registered for a source.
func (s *Service) CrawlerBySource(source press.Source) (Crawler, bool) {
	for _, c := range s.crawlers {
		if c.Source() == source {
			return c, true
		}
	}
	return nil, false
}

// CrawlAll runs every registered adapter sequentially. A failing source
// yields a failed CrawlResult and never blocks the remaining sources.
func (s *Service) CrawlAll(ctx context.Context, limit int) []press.CrawlResult {
	s.logger.Info("Starting crawl run", zap.Int("limit", limit), zap.Int("sources", len(s.crawlers)))

	results := make([]press.CrawlResult, 0, len(s.crawlers))
	for _, c := range s.crawlers {
		results = append(results, s.CrawlOne(ctx, c, limit))
	}

	totals := press.Sum(results)
	s.logger.Info("Crawl run completed",
		zap.Int("fetched", totals.Fetched),
		zap.Int("new", totals.New),
		zap.Int("updated", totals.Updated),
		zap.Int("sources_with_errors", totals.Errors),
	)
	return results
}

// CrawlOne runs a single adapter and reconciles each returned release
// against the store in fetch order. Persistence errors are isolated per
// item; only an adapter fetch failure fails the whole result.
func (s *Service) CrawlOne(ctx context.Context, c Crawler, limit int) press.CrawlResult {
	source := c.Source()
	logger := s.logger.With(zap.String("crawler", c.Name()), zap.String("source", string(source)))
	start := s.clock()

	releases, err := c.Fetch(ctx, limit)
	if err != nil {
		logger.Error("Fetch failed", zap.Error(err))
		metrics.ObserveRun(string(source), "failed", s.clock().Sub(start))
		return press.CrawlResult{
			Success:   false,
			Source:    source,
			Errors:    []string{err.Error()},
			Timestamp: s.clock(),
		}
	}
	metrics.ObserveRun(string(source), "success", s.clock().Sub(start))
	logger.Info("Fetched items", zap.Int("count", len(releases)))

	result := press.CrawlResult{
		Success:      true,
		Source:       source,
		ItemsFetched: len(releases),
	}
	for _, release := range releases {
		metrics.ObserveItem(string(source), metrics.OutcomeFetched)
		outcome, err := s.reconcile(ctx, release)
		if err != nil {
			metrics.ObserveItem(string(source), metrics.OutcomeError)
			msg := fmt.Sprintf("save %s failed: %v", release.Title, err)
			logger.Error("Reconcile failed", zap.String("key", release.Key()), zap.Error(err))
			result.Errors = append(result.Errors, msg)
			continue
		}
		metrics.ObserveItem(string(source), outcome)
		switch outcome {
		case metrics.OutcomeNew:
			result.ItemsNew++
			s.announce(ctx, logger, release)
		case metrics.OutcomeUpdated:
			result.ItemsUpdated++
		}
	}

	result.Timestamp = s.clock()
	logger.Info("Reconciliation completed",
		zap.Int("new", result.ItemsNew),
		zap.Int("updated", result.ItemsUpdated),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// reconcile applies the insert/update/skip decision for one release.
func (s *Service) reconcile(ctx context.Context, release press.Release) (string, error) {
	existing, err := s.releases.GetBySourceID(ctx, release.Source, release.SourceID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if _, err := s.releases.Upsert(ctx, release); err != nil {
			return "", err
		}
		return metrics.OutcomeNew, nil
	case err != nil:
		return "", err
	}

	if !press.Changed(existing, release) {
		return metrics.OutcomeSkipped, nil
	}
	if _, err := s.releases.Upsert(ctx, release); err != nil {
		return "", err
	}
	return metrics.OutcomeUpdated, nil
}

func (s *Service) announce(ctx context.Context, logger *zap.Logger, release press.Release) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, NewReleaseTopic, release); err != nil {
		logger.Warn("Publish new release failed", zap.String("key", release.Key()), zap.Error(err))
	}
}
