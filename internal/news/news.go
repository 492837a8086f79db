// Package news holds the data model shared by the fetch, extract, and score
// stages: feeds, entries, and their tag/score state.
package news

import (
	"slices"
	"time"
)

// Feed is one fetched and parsed RSS source for one category.
// It is immutable once the fetcher hands it to the pipeline.
type Feed struct {
	Title     string
	Subtitle  string
	Link      string
	Language  string
	Published time.Time
	Entries   []*Entry
}

// Entry is a single article from a feed. The Description starts as whatever
// the feed supplied and may be replaced once by the enricher; Tags and Scores
// are filled in by the scoring stage. After scoring, an entry is treated as
// read-only.
type Entry struct {
	Title       string
	Description string
	Link        string // natural identifier downstream
	Published   time.Time
	Source      string // provider name, e.g. "google", "yahoo"

	// Tags is kept sorted and deduplicated. It carries the feed category
	// plus the tags of every rule that scored this entry positively.
	Tags []string

	// Scores maps rule name to that rule's score for this entry.
	Scores map[string]int
}

// AddTags merges tags into the entry's tag set, keeping it sorted and unique.
func (e *Entry) AddTags(tags ...string) {
	if len(tags) == 0 {
		return
	}
	e.Tags = append(e.Tags, tags...)
	slices.Sort(e.Tags)
	e.Tags = slices.Compact(e.Tags)
}

// HasTag reports whether the entry carries the given tag.
func (e *Entry) HasTag(tag string) bool {
	_, found := slices.BinarySearch(e.Tags, tag)
	return found
}

// TotalScore sums the strictly positive per-rule scores. Rules that scored
// zero or negative contribute nothing: a veto suppresses only that rule's own
// credit, never the credit earned from other rules.
func (e *Entry) TotalScore() int {
	total := 0
	for _, s := range e.Scores {
		if s > 0 {
			total += s
		}
	}
	return total
}

// Relevant reports whether the entry is worth retaining.
func (e *Entry) Relevant() bool {
	return e.TotalScore() > 0
}
