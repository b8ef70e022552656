package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutObjectStoresBody(t *testing.T) {
	t.Parallel()

	s := New()
	uri, err := s.PutObject(context.Background(), "snapshots/msit/2025-06-02/abc.xml", "application/xml", strings.NewReader("<rss/>"))
	require.NoError(t, err)
	assert.Equal(t, "mem://snapshots/msit/2025-06-02/abc.xml", uri)

	body, ok := s.Object("snapshots/msit/2025-06-02/abc.xml")
	require.True(t, ok)
	assert.Equal(t, "<rss/>", string(body))
	assert.Equal(t, 1, s.Len())
}

func TestPutObjectOverwrites(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.PutObject(context.Background(), "p", "", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = s.PutObject(context.Background(), "p", "", strings.NewReader("two"))
	require.NoError(t, err)

	body, ok := s.Object("p")
	require.True(t, ok)
	assert.Equal(t, "two", string(body))
	assert.Equal(t, 1, s.Len())
}

func TestObjectMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok := s.Object("nope")
	assert.False(t, ok)
}
