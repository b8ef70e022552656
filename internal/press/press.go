// Package press defines the canonical press release model shared by the
// crawl adapters, the reconciliation service, and the persistence layer.
package press

import (
	"encoding/json"
	"fmt"
	"time"
)

// Source identifies one external publisher. The set is fixed and small.
type Source string

const (
	// SourceMSIT is the Ministry of Science and ICT.
	SourceMSIT Source = "msit"
	// SourceKCC is the Korea Communications Commission.
	SourceKCC Source = "kcc"
)

// Sources lists every known publisher.
func Sources() []Source {
	return []Source{SourceMSIT, SourceKCC}
}

// ParseSource validates a raw source string.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceMSIT, SourceKCC:
		return Source(s), nil
	default:
		return "", fmt.Errorf("unknown source %q", s)
	}
}

// Attachment is one file linked from a press release detail page.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size string `json:"size,omitempty"`
}

// Release is the normalized press release record. The pair
// (Source, SourceID) is the deduplication key: at most one stored record
// may carry it, and SourceID is derived deterministically from the same
// upstream item on every fetch.
type Release struct {
	Source      Source       `json:"source"`
	SourceID    string       `json:"source_id"`
	Title       string       `json:"title"`
	Content     string       `json:"content,omitempty"`
	PublishedAt time.Time    `json:"published_at"`
	URL         string       `json:"url"`
	Category    string       `json:"category,omitempty"`
	Department  string       `json:"department,omitempty"`
	Author      string       `json:"author,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Key returns the deduplication key as a single string, useful for maps
// and log fields.
func (r Release) Key() string {
	return string(r.Source) + "/" + r.SourceID
}

// Changed reports whether the mutable fields of a freshly fetched release
// differ from the stored one. Only title, content, category and the
// serialized attachment list participate in the comparison; published_at
// and url are treated as immutable per key.
func Changed(stored, fetched Release) bool {
	if stored.Title != fetched.Title {
		return true
	}
	if stored.Content != fetched.Content {
		return true
	}
	if stored.Category != fetched.Category {
		return true
	}
	return !attachmentsEqual(stored.Attachments, fetched.Attachments)
}

func attachmentsEqual(a, b []Attachment) bool {
	if len(a) != len(b) {
		return false
	}
	aJSON, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bJSON, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}

// CrawlResult summarizes one reconciliation run for a single source.
// It is ephemeral: produced per run, returned to the trigger layer,
// never persisted.
type CrawlResult struct {
	Success      bool      `json:"success"`
	Source       Source    `json:"source"`
	ItemsFetched int       `json:"items_fetched"`
	ItemsNew     int       `json:"items_new"`
	ItemsUpdated int       `json:"items_updated"`
	Errors       []string  `json:"errors,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Totals aggregates CrawlResults across sources.
type Totals struct {
	Fetched int `json:"fetched"`
	New     int `json:"new"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// Sum computes run totals. Errors counts sources whose result carries a
// non-empty error list, not individual error strings.
func Sum(results []CrawlResult) Totals {
	var t Totals
	for _, r := range results {
		t.Fetched += r.ItemsFetched
		t.New += r.ItemsNew
		t.Updated += r.ItemsUpdated
		if len(r.Errors) > 0 {
			t.Errors++
		}
	}
	return t
}
