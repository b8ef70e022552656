// Package clean holds the pure text, date and identity normalization
// helpers shared by the source adapters.
package clean

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	decimalEntity     = regexp.MustCompile(`&#(\d+);`)
	hexEntity         = regexp.MustCompile(`&#x([0-9A-Fa-f]+);`)
)

// namedEntities is the fixed table of named HTML entities the upstream
// documents are known to use. Unknown entities pass through untouched.
var namedEntities = map[string]string{
	"&nbsp;":   " ",
	"&quot;":   `"`,
	"&amp;":    "&",
	"&lt;":     "<",
	"&gt;":     ">",
	"&middot;": "·",
	"&bull;":   "•",
	"&ndash;":  "–",
	"&mdash;":  "—",
	"&lsquo;":  "‘",
	"&rsquo;":  "’",
	"&ldquo;":  "“",
	"&rdquo;":  "”",
	"&hellip;": "…",
	"&copy;":   "©",
	"&reg;":    "®",
	"&trade;":  "™",
	"&apos;":   "'",
}

// Text strips markup tags, decodes HTML entities, collapses whitespace
// runs into single spaces and trims the result.
func Text(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	for entity, replacement := range namedEntities {
		s = strings.ReplaceAll(s, entity, replacement)
	}
	s = decimalEntity.ReplaceAllStringFunc(s, func(match string) string {
		digits := decimalEntity.FindStringSubmatch(match)[1]
		code, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			return match
		}
		return string(rune(code))
	})
	s = hexEntity.ReplaceAllStringFunc(s, func(match string) string {
		digits := hexEntity.FindStringSubmatch(match)[1]
		code, err := strconv.ParseInt(digits, 16, 32)
		if err != nil {
			return match
		}
		return string(rune(code))
	})
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var koreanDateUnits = strings.NewReplacer("년", "-", "월", "-", "일", "")

var dateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	time.RFC3339,
}

// ParseDate parses the date conventions seen on the upstream boards:
// "2024.12.06", "2024-12-06" and "2024년 12월 06일", optionally with a
// time component. Callers are expected to substitute the current time
// and log a warning when it fails.
func ParseDate(s string) (time.Time, error) {
	cleaned := koreanDateUnits.Replace(s)
	cleaned = strings.ReplaceAll(cleaned, ".", "-")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "-")
	cleaned = strings.TrimSpace(cleaned)
	for strings.Contains(cleaned, "--") {
		cleaned = strings.ReplaceAll(cleaned, "--", "-")
	}
	cleaned = strings.ReplaceAll(cleaned, "- ", "-")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// SourceID extracts the stable per-publisher identifier from a detail or
// listing URL. It prefers the named query parameter and falls back to
// the last segment of the URL path, then to the raw URL itself, so
// repeated fetches of the same item always derive the same ID.
func SourceID(rawURL, param string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if param != "" {
		if id := u.Query().Get(param); id != "" {
			return id
		}
	}
	path := strings.TrimRight(u.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 && idx < len(path)-1 {
		return path[idx+1:]
	}
	return rawURL
}
