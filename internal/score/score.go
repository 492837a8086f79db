// Package score evaluates entries against rules. Scoring is deterministic
// keyword counting with no I/O: the same entry and rules always produce the
// same scores and tags.
package score

import (
	"log/slog"
	"strings"

	"github.com/ycwei/newsift/internal/news"
	"github.com/ycwei/newsift/internal/rules"
)

const (
	// ExclusionPenalty is subtracted per excluded keyword found in the
	// title. It dominates inclusion credit so that an exclusion match always
	// wins over any number of included-keyword hits.
	ExclusionPenalty = 10

	// TitleWeight and DescriptionWeight are the credit per keyword
	// occurrence. Title hits matter far more than body hits.
	TitleWeight       = 10
	DescriptionWeight = 1
)

// Rule computes a single rule's score for a title and description.
//
//	< 0  excluded: an excluded keyword appears in the title (absolute veto,
//	     no inclusion credit is computed)
//	> 0  of interest: every included keyword appears at least once
//	= 0  not of interest: some included keyword never appears
func Rule(title, description string, r rules.Rule) int {
	score := 0

	for _, kw := range r.Exclude {
		if strings.Contains(title, kw) {
			score -= ExclusionPenalty
		}
	}
	if score < 0 {
		return score
	}

	containsAll := true
	for _, kw := range r.Include {
		inTitle := strings.Count(title, kw)
		inDescription := strings.Count(description, kw)

		score += inTitle * TitleWeight
		score += inDescription * DescriptionWeight

		if inTitle == 0 && inDescription == 0 {
			// AND semantics: a partial match is not relevant.
			containsAll = false
		}
	}
	if !containsAll {
		return 0
	}

	return score
}

// Compute scores a title and description against every rule, returning the
// per-rule score map and the union of tags from rules that scored positive.
// It is a pure function; the caller assigns the results onto the entry.
func Compute(title, description string, rs []rules.Rule) (map[string]int, []string) {
	scores := make(map[string]int, len(rs))
	var tags []string
	for _, r := range rs {
		s := Rule(title, description, r)
		scores[r.Name] = s
		if s > 0 {
			tags = append(tags, r.Tags...)
		}
	}
	return scores, tags
}

// Apply scores an entry in place. An empty rule set is not an error: the
// entry simply scores zero, with a warning so a misconfigured run is visible.
func Apply(e *news.Entry, rs []rules.Rule, log *slog.Logger) {
	if len(rs) == 0 {
		if log != nil {
			log.Warn("no rule set for entry", "title", e.Title)
		}
		e.Scores = map[string]int{}
		return
	}

	scores, tags := Compute(e.Title, e.Description, rs)
	e.Scores = scores
	e.AddTags(tags...)
}

// Partition splits entries into (all, target) where target holds the entries
// with a strictly positive total score, preserving order.
func Partition(entries []*news.Entry) (all, target []*news.Entry) {
	for _, e := range entries {
		if e.Relevant() {
			target = append(target, e)
		}
	}
	return entries, target
}
