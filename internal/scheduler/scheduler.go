// Package scheduler triggers periodic crawl runs from an in-process
// cron timer.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/newsroom-kr/press-crawler/internal/crawler"
	"github.com/newsroom-kr/press-crawler/internal/press"
)

// Scheduler runs CrawlAll on a cron expression. Ticks that arrive while
// a run is still executing are skipped, never queued.
type Scheduler struct {
	cron    *cron.Cron
	service *crawler.Service
	logger  *zap.Logger
	limit   int
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New builds a Scheduler for the given five-field cron expression.
func New(service *crawler.Service, spec string, limit int, logger *zap.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    c,
		service: service,
		logger:  logger,
		limit:   limit,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := c.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing ticks. It returns immediately.
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", zap.Int("limit", s.limit))
	s.cron.Start()
}

// Stop cancels any in-flight run and waits for the cron timer to wind
// down.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous crawl run still executing, skipping tick")
		return
	}
	defer s.running.Store(false)

	results := s.service.CrawlAll(s.ctx, s.limit)
	totals := press.Sum(results)
	s.logger.Info("Scheduled crawl run finished",
		zap.Int("fetched", totals.Fetched),
		zap.Int("new", totals.New),
		zap.Int("updated", totals.Updated),
		zap.Int("errors", totals.Errors),
	)
}
