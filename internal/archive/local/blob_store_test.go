// Package local_test tests the local filesystem snapshot archive.
package local_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-kr/press-crawler/internal/archive/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		tempFile, err := os.CreateTemp(t.TempDir(), "testfile")
		require.NoError(t, err)
		require.NoError(t, tempFile.Close())

		_, err = local.New(local.Config{BaseDir: tempFile.Name()})
		assert.Error(t, err)
	})

	t.Run("CreatesMissingBaseDir", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "snapshots")
		_, err := local.New(local.Config{BaseDir: base})
		require.NoError(t, err)
		info, err := os.Stat(base)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestPutObject(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	t.Run("writes file and returns uri", func(t *testing.T) {
		uri, err := store.PutObject(
			context.Background(),
			"snapshots/msit/2025-08-20/abc.xml",
			"application/xml",
			bytes.NewReader([]byte("<rss/>")),
		)
		require.NoError(t, err)
		assert.Contains(t, uri, "file://")

		data, err := os.ReadFile(filepath.Join(tempDir, "snapshots/msit/2025-08-20/abc.xml"))
		require.NoError(t, err)
		assert.Equal(t, "<rss/>", string(data))
	})

	t.Run("empty path rejected", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "  ", "", bytes.NewReader(nil))
		assert.Error(t, err)
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "../escape.html", "", bytes.NewReader(nil))
		assert.Error(t, err)
	})
}
