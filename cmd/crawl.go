package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsroom-kr/press-crawler/internal/press"
)

func newCrawlCmd() *cobra.Command {
	var (
		sourceName string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl pass and prints the per-source results as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, sourceName, limit)
		},
	}
	cmd.Flags().StringVar(&sourceName, "source", "", "crawl a single source (msit or kcc)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max items per source (default from config)")
	return cmd
}

func runCrawl(cmd *cobra.Command, sourceName string, limit int) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer a.Close()

	if limit <= 0 {
		limit = a.cfg.Crawler.DefaultLimit
	}

	var results []press.CrawlResult
	if sourceName != "" {
		source, err := press.ParseSource(sourceName)
		if err != nil {
			return err
		}
		c, ok := a.service.CrawlerBySource(source)
		if !ok {
			return fmt.Errorf("source %s is not enabled", source)
		}
		results = []press.CrawlResult{a.service.CrawlOne(ctx, c, limit)}
	} else {
		results = a.service.CrawlAll(ctx, limit)
	}

	out := struct {
		Success   bool                `json:"success"`
		Timestamp time.Time           `json:"timestamp"`
		Results   []press.CrawlResult `json:"results"`
		Totals    press.Totals        `json:"totals"`
	}{
		Timestamp: time.Now().UTC(),
		Results:   results,
		Totals:    press.Sum(results),
	}
	for _, res := range results {
		if res.Success {
			out.Success = true
			break
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("all sources failed")
	}
	return nil
}
