// Package postgres provides the Postgres-backed ReleaseStore.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newsroom-kr/press-crawler/internal/press"
	"github.com/newsroom-kr/press-crawler/internal/store"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ReleaseStore persists press releases in the press_releases table.
// Expected schema:
//
//	CREATE TABLE press_releases (
//	    id BIGSERIAL PRIMARY KEY,
//	    source TEXT NOT NULL,
//	    source_id TEXT NOT NULL,
//	    title TEXT NOT NULL,
//	    content TEXT,
//	    published_at TIMESTAMPTZ NOT NULL,
//	    url TEXT NOT NULL,
//	    category TEXT,
//	    department TEXT,
//	    author TEXT,
//	    attachments JSONB,
//	    last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    UNIQUE (source, source_id)
//	);
type ReleaseStore struct {
	pool pool
	now  func() time.Time
}

// NewReleaseStore connects a pool using the provided config.
func NewReleaseStore(ctx context.Context, cfg Config) (*ReleaseStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ReleaseStore{pool: p, now: func() time.Time { return time.Now().UTC() }}, nil
}

// NewReleaseStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewReleaseStoreWithPool(p pool) (*ReleaseStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ReleaseStore{pool: p, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close shuts down the connection pool.
func (s *ReleaseStore) Close() {
	s.pool.Close()
}

const selectColumns = `source, source_id, title, COALESCE(content, ''), published_at, url,
	COALESCE(category, ''), COALESCE(department, ''), COALESCE(author, ''), attachments`

// GetBySourceID fetches a single release by its deduplication key.
func (s *ReleaseStore) GetBySourceID(
	ctx context.Context,
	source press.Source,
	sourceID string,
) (press.Release, error) {
	query := `SELECT ` + selectColumns + `
		FROM press_releases
		WHERE source = $1 AND source_id = $2;`
	row := s.pool.QueryRow(ctx, query, string(source), sourceID)
	release, err := scanRelease(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return press.Release{}, store.ErrNotFound
		}
		return press.Release{}, fmt.Errorf("get release %s/%s: %w", source, sourceID, err)
	}
	return release, nil
}

// Upsert inserts the release or updates the row with the same key.
func (s *ReleaseStore) Upsert(ctx context.Context, release press.Release) (press.Release, error) {
	attachments, err := marshalAttachments(release.Attachments)
	if err != nil {
		return press.Release{}, fmt.Errorf("marshal attachments: %w", err)
	}
	query := `INSERT INTO press_releases
			(source, source_id, title, content, published_at, url, category, department, author, attachments, last_updated)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11)
		ON CONFLICT (source, source_id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			published_at = EXCLUDED.published_at,
			url = EXCLUDED.url,
			category = EXCLUDED.category,
			department = EXCLUDED.department,
			author = EXCLUDED.author,
			attachments = EXCLUDED.attachments,
			last_updated = EXCLUDED.last_updated;`
	_, err = s.pool.Exec(ctx, query,
		string(release.Source),
		release.SourceID,
		release.Title,
		release.Content,
		release.PublishedAt,
		release.URL,
		release.Category,
		release.Department,
		release.Author,
		attachments,
		s.now(),
	)
	if err != nil {
		return press.Release{}, fmt.Errorf("upsert release %s: %w", release.Key(), err)
	}
	return release, nil
}

// List returns stored releases, newest first.
func (s *ReleaseStore) List(ctx context.Context, filter store.Filter) ([]press.Release, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + selectColumns + `
		FROM press_releases
		WHERE ($1::text IS NULL OR source = $1)
		ORDER BY published_at DESC
		LIMIT $2;`
	var source *string
	if filter.Source != "" {
		src := string(filter.Source)
		source = &src
	}
	rows, err := s.pool.Query(ctx, query, source, limit)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	defer rows.Close()

	var releases []press.Release
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan release row: %w", err)
		}
		releases = append(releases, release)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate release rows: %w", err)
	}
	return releases, nil
}

func scanRelease(row pgx.Row) (press.Release, error) {
	var (
		release     press.Release
		source      string
		attachments []byte
	)
	err := row.Scan(
		&source,
		&release.SourceID,
		&release.Title,
		&release.Content,
		&release.PublishedAt,
		&release.URL,
		&release.Category,
		&release.Department,
		&release.Author,
		&attachments,
	)
	if err != nil {
		return press.Release{}, err
	}
	release.Source = press.Source(source)
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &release.Attachments); err != nil {
			return press.Release{}, fmt.Errorf("unmarshal attachments: %w", err)
		}
	}
	return release, nil
}

func marshalAttachments(attachments []press.Attachment) ([]byte, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return nil, err
	}
	return data, nil
}
