package clean

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"entities and tags", "A &amp; B <b>bold</b>", "A & B bold"},
		{"plain text", "hello", "hello"},
		{"strips markup", "<p>first</p><p>second</p>", "firstsecond"},
		{"nbsp becomes space", "a&nbsp;b", "a b"},
		{"quotes", "&ldquo;quoted&rdquo; &lsquo;single&rsquo;", "“quoted” ‘single’"},
		{"numeric entity", "caf&#233;", "café"},
		{"hex entity", "&#xAC00;&#xB098;", "가나"},
		{"collapses whitespace", "  spaced \t\n out  ", "spaced out"},
		{"middot list", "plan &middot; budget &middot; schedule", "plan · budget · schedule"},
		{"unknown entity untouched", "&bogus; stays", "&bogus; stays"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 12, 6, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   string
	}{
		{"dotted", "2024.12.06"},
		{"dashed", "2024-12-06"},
		{"korean units", "2024년 12월 06일"},
		{"dotted with trailing dot", "2024.12.06."},
		{"single digit fields", "2024.12.6"},
		{"surrounding whitespace", "  2024-12-06  "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	t.Run("with time component", func(t *testing.T) {
		got, err := ParseDate("2024-12-06 14:30")
		require.NoError(t, err)
		assert.Equal(t, 14, got.Hour())
		assert.Equal(t, 30, got.Minute())
	})

	t.Run("garbage fails", func(t *testing.T) {
		for _, in := range []string{"", "yesterday", "12/06/2024", "2024"} {
			_, err := ParseDate(in)
			require.Error(t, err, "input %q", in)
		}
	})
}

func TestSourceID(t *testing.T) {
	t.Run("query parameter", func(t *testing.T) {
		id := SourceID("https://www.msit.go.kr/bbs/view.do?sCode=user&nttSeqNo=156723", "nttSeqNo")
		assert.Equal(t, "156723", id)
	})

	t.Run("korea.kr news id", func(t *testing.T) {
		id := SourceID("https://www.korea.kr/news/pressReleaseView.do?newsId=156912345", "newsId")
		assert.Equal(t, "156912345", id)
	})

	t.Run("falls back to last path segment", func(t *testing.T) {
		id := SourceID("https://www.kcc.go.kr/board/41992", "boardSeq")
		assert.Equal(t, "41992", id)
	})

	t.Run("trailing slash", func(t *testing.T) {
		id := SourceID("https://www.kcc.go.kr/board/41992/", "boardSeq")
		assert.Equal(t, "41992", id)
	})

	t.Run("no parameter requested", func(t *testing.T) {
		id := SourceID("https://example.com/a/b/c", "")
		assert.Equal(t, "c", id)
	})

	t.Run("missing parameter falls back to path segment", func(t *testing.T) {
		id := SourceID("https://www.msit.go.kr/bbs/view.do?sCode=user", "nttSeqNo")
		assert.Equal(t, "view.do", id)
	})

	t.Run("deterministic across fetches", func(t *testing.T) {
		url := "https://www.msit.go.kr/bbs/view.do?nttSeqNo=99&mId=307"
		assert.Equal(t, SourceID(url, "nttSeqNo"), SourceID(url, "nttSeqNo"))
	})
}
