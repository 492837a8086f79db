package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ycwei/newsift/internal/rules"
	"github.com/ycwei/newsift/internal/score"
	"github.com/ycwei/newsift/internal/store"
)

// parseDuration accepts time.ParseDuration syntax plus a "d" suffix for days.
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", s, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// rescoreEntry recomputes a stored entry's scoring state against a rule set.
// Existing tags are kept: the category tag assigned at fetch time cannot be
// told apart from rule tags, so tags only accumulate across rescores.
func rescoreEntry(e store.Entry, rs []rules.Rule) (scores map[string]int, tags []string, total int) {
	scores, ruleTags := score.Compute(e.Title, e.Description, rs)

	tags = append(slices.Clone(e.Tags), ruleTags...)
	slices.Sort(tags)
	tags = slices.Compact(tags)

	for _, s := range scores {
		if s > 0 {
			total += s
		}
	}
	return scores, tags, total
}
