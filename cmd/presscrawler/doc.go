// Package main hosts the press-release crawler entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, crawl
//     trigger, and release read endpoints. A crawl request runs the full
//     fetch-and-reconcile pass synchronously and returns per-source
//     results plus aggregated totals in one response.
//   - Source adapters: each enabled publisher (msit, kcc) gets one
//     adapter — a gofeed-based RSS adapter or a goquery-based board
//     listing adapter with detail-page fetches. Adapters normalize
//     upstream documents into canonical press.Release records.
//   - Reconciliation: crawler.Service looks each record up by
//     (source, source_id), inserts new records, updates records whose
//     title/content/category/attachments changed, and skips the rest.
//     Sources and items are processed strictly sequentially, so no two
//     reconciliations of the same key are ever in flight at once.
//   - Persistence & fanout: releases live in Postgres (or an in-memory
//     store when no DSN is configured). Raw upstream documents are
//     optionally archived to GCS or the local filesystem, and a compact
//     Pub/Sub notification is published for each new release when a
//     project is configured.
//   - Configuration & plumbing: Viper populates config from env/files;
//     zap provides structured logging; Prometheus metrics are exported
//     via /metrics; robfig/cron drives scheduled runs when enabled.
//
// Operational notes:
//   - Failure isolation: a source whose feed or listing page is
//     unreachable yields a failed CrawlResult without blocking the other
//     sources; a single record that fails to persist is surfaced in that
//     source's error list without aborting the pass.
//   - Idempotency: rerunning a crawl against an unchanged upstream
//     produces zero inserts and zero updates.
//   - Shutdown: the process reacts to SIGINT/SIGTERM, drains the HTTP
//     server, stops the cron timer, and closes the store and clients.
//
// Quick checklist:
//   - Configure env vars with the PRESSCRAWLER_ prefix
//     (PRESSCRAWLER_SERVER_PORT, PRESSCRAWLER_STORE_DSN,
//     PRESSCRAWLER_ARCHIVE_PROVIDER, PRESSCRAWLER_PUBSUB_PROJECT_ID,
//     PRESSCRAWLER_SCHEDULE_ENABLED) or pass --config config.yaml.
//   - Run locally: go run ./cmd/presscrawler crawl --limit 5 for a
//     one-shot pass, or go run ./cmd/presscrawler serve for the API.
package main
