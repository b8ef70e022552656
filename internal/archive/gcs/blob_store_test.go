package gcs

import (
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresClient(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "snapshots"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client")
}

func TestNewRequiresBucket(t *testing.T) {
	t.Parallel()

	client := &storage.Client{}
	_, err := New(client, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")

	_, err = New(client, Config{Bucket: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}
