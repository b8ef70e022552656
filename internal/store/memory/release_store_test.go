package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-kr/press-crawler/internal/press"
	"github.com/newsroom-kr/press-crawler/internal/store"
)

func TestReleaseStore_GetBySourceID(t *testing.T) {
	s := NewReleaseStore()
	ctx := context.Background()

	_, err := s.GetBySourceID(ctx, press.SourceMSIT, "1")
	require.ErrorIs(t, err, store.ErrNotFound)

	saved, err := s.Upsert(ctx, press.Release{Source: press.SourceMSIT, SourceID: "1", Title: "first"})
	require.NoError(t, err)
	assert.Equal(t, "first", saved.Title)

	got, err := s.GetBySourceID(ctx, press.SourceMSIT, "1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	// Same ID under a different source is a different key.
	_, err = s.GetBySourceID(ctx, press.SourceKCC, "1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReleaseStore_UpsertIsKeyed(t *testing.T) {
	s := NewReleaseStore()
	ctx := context.Background()

	_, err := s.Upsert(ctx, press.Release{Source: press.SourceKCC, SourceID: "7", Title: "v1"})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, press.Release{Source: press.SourceKCC, SourceID: "7", Title: "v2"})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
	got, err := s.GetBySourceID(ctx, press.SourceKCC, "7")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
}

func TestReleaseStore_List(t *testing.T) {
	s := NewReleaseStore()
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	for i, src := range []press.Source{press.SourceMSIT, press.SourceKCC, press.SourceMSIT} {
		_, err := s.Upsert(ctx, press.Release{
			Source:      src,
			SourceID:    string(rune('a' + i)),
			Title:       "item",
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		all, err := s.List(ctx, store.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.True(t, all[0].PublishedAt.After(all[1].PublishedAt))
	})

	t.Run("source filter", func(t *testing.T) {
		msit, err := s.List(ctx, store.Filter{Source: press.SourceMSIT})
		require.NoError(t, err)
		assert.Len(t, msit, 2)
	})

	t.Run("limit", func(t *testing.T) {
		limited, err := s.List(ctx, store.Filter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}
