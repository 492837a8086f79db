package news

import (
	"slices"
	"testing"
)

func TestAddTags_SortedAndDeduplicated(t *testing.T) {
	e := &Entry{}
	e.AddTags("politics")
	e.AddTags("technology", "politics")
	e.AddTags()

	if !slices.Equal(e.Tags, []string{"politics", "technology"}) {
		t.Errorf("tags = %v, want [politics technology]", e.Tags)
	}
	if !e.HasTag("politics") || e.HasTag("sports") {
		t.Errorf("HasTag gave wrong answer for %v", e.Tags)
	}
}

func TestTotalScore_SumsOnlyPositive(t *testing.T) {
	e := &Entry{Scores: map[string]int{
		"a": 30,
		"b": 0,
		"c": -10,
		"d": 2,
	}}

	if got := e.TotalScore(); got != 32 {
		t.Errorf("total = %d, want 32", got)
	}
	if !e.Relevant() {
		t.Error("entry with positive total should be relevant")
	}
}

func TestTotalScore_Empty(t *testing.T) {
	e := &Entry{}
	if e.TotalScore() != 0 {
		t.Errorf("total = %d, want 0", e.TotalScore())
	}
	if e.Relevant() {
		t.Error("entry with no scores should not be relevant")
	}
}
