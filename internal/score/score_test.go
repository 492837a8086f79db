package score

import (
	"io"
	"log/slog"
	"maps"
	"slices"
	"testing"

	"github.com/ycwei/newsift/internal/news"
	"github.com/ycwei/newsift/internal/rules"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func entry(title, description string) *news.Entry {
	return &news.Entry{Title: title, Description: description, Link: "https://example.com/a", Source: "test"}
}

func TestRule_TitleAndDescriptionWeights(t *testing.T) {
	r := rules.Rule{Name: "tech", Include: []string{"chip"}}

	// One title hit (10) plus two description hits (1 each).
	got := Rule("new chip factory", "the chip plant makes one chip per second", r)
	if got != 12 {
		t.Errorf("score = %d, want 12", got)
	}
}

func TestRule_ExclusionVeto(t *testing.T) {
	r := rules.Rule{Name: "politics", Include: []string{"election"}, Exclude: []string{"sports"}}

	// The exclude match wins regardless of how often "election" appears.
	got := Rule("Election results election recap and sports", "election election election", r)
	if got >= 0 {
		t.Errorf("score = %d, want negative", got)
	}
	if got != -ExclusionPenalty {
		t.Errorf("score = %d, want %d", got, -ExclusionPenalty)
	}
}

func TestRule_ExclusionPenaltyPerKeyword(t *testing.T) {
	r := rules.Rule{Name: "r", Exclude: []string{"foo", "bar"}}

	got := Rule("foo and bar", "", r)
	if got != -2*ExclusionPenalty {
		t.Errorf("score = %d, want %d", got, -2*ExclusionPenalty)
	}
}

func TestRule_AllKeywordsRequired(t *testing.T) {
	r := rules.Rule{Name: "tech", Include: []string{"AI", "chip"}}

	// "AI" matches but "chip" never appears: the rule scores exactly 0,
	// not the partial credit.
	got := Rule("AI breakthrough announced", "more about AI", r)
	if got != 0 {
		t.Errorf("score = %d, want 0", got)
	}

	// Both present scores positive.
	got = Rule("AI chip breakthrough", "", r)
	if got <= 0 {
		t.Errorf("score = %d, want positive", got)
	}
}

func TestRule_NoKeywordsPresent(t *testing.T) {
	r := rules.Rule{Name: "tech", Include: []string{"AI", "chip"}}

	got := Rule("Stock market rally", "shares rose broadly", r)
	if got != 0 {
		t.Errorf("score = %d, want 0", got)
	}
}

func TestCompute_TagsOnlyFromPositiveRules(t *testing.T) {
	rs := []rules.Rule{
		{Name: "hit", Include: []string{"election"}, Tags: []string{"politics"}},
		{Name: "miss", Include: []string{"quantum"}, Tags: []string{"science"}},
		{Name: "veto", Include: []string{"election"}, Exclude: []string{"Election"}, Tags: []string{"banned"}},
	}

	scores, tags := Compute("Election results", "the election is over", rs)

	if scores["hit"] <= 0 {
		t.Errorf("hit score = %d, want positive", scores["hit"])
	}
	if scores["miss"] != 0 {
		t.Errorf("miss score = %d, want 0", scores["miss"])
	}
	if scores["veto"] >= 0 {
		t.Errorf("veto score = %d, want negative", scores["veto"])
	}
	if !slices.Contains(tags, "politics") {
		t.Errorf("tags = %v, want containing politics", tags)
	}
	if slices.Contains(tags, "science") || slices.Contains(tags, "banned") {
		t.Errorf("tags = %v, must not contain science or banned", tags)
	}
}

func TestTotalScore_IgnoresNonPositiveRules(t *testing.T) {
	positive := []rules.Rule{
		{Name: "a", Include: []string{"election"}},
	}
	mixed := []rules.Rule{
		{Name: "a", Include: []string{"election"}},
		{Name: "zero", Include: []string{"quantum"}},
		{Name: "veto", Exclude: []string{"Election"}},
	}

	e1 := entry("Election night", "")
	Apply(e1, positive, discardLogger())
	e2 := entry("Election night", "")
	Apply(e2, mixed, discardLogger())

	if e1.TotalScore() != e2.TotalScore() {
		t.Errorf("total with mixed rules = %d, want %d", e2.TotalScore(), e1.TotalScore())
	}
}

func TestApply_Idempotent(t *testing.T) {
	rs := []rules.Rule{
		{Name: "tech", Include: []string{"AI"}, Tags: []string{"technology"}},
		{Name: "politics", Include: []string{"election"}, Exclude: []string{"sports"}, Tags: []string{"politics"}},
	}

	e1 := entry("AI and the election", "AI everywhere")
	Apply(e1, rs, discardLogger())
	e2 := entry("AI and the election", "AI everywhere")
	Apply(e2, rs, discardLogger())

	if !maps.Equal(e1.Scores, e2.Scores) {
		t.Errorf("scores differ: %v vs %v", e1.Scores, e2.Scores)
	}
	if !slices.Equal(e1.Tags, e2.Tags) {
		t.Errorf("tags differ: %v vs %v", e1.Tags, e2.Tags)
	}

	// Applying again to the same entry does not change the result either.
	Apply(e1, rs, discardLogger())
	if !maps.Equal(e1.Scores, e2.Scores) || !slices.Equal(e1.Tags, e2.Tags) {
		t.Error("second Apply changed the entry")
	}
}

func TestApply_EmptyRuleSet(t *testing.T) {
	e := entry("anything at all", "text")
	Apply(e, nil, discardLogger())

	if e.TotalScore() != 0 {
		t.Errorf("total = %d, want 0", e.TotalScore())
	}
	if e.Scores == nil {
		t.Error("scores map should be initialized")
	}
}

func TestPartition_TargetIffPositiveTotal(t *testing.T) {
	rs := []rules.Rule{{Name: "tech", Include: []string{"AI", "chip"}, Tags: []string{"technology"}}}

	relevant := entry("AI chip breakthrough", "")
	irrelevant := entry("Stock market rally", "")
	Apply(relevant, rs, discardLogger())
	Apply(irrelevant, rs, discardLogger())

	all, target := Partition([]*news.Entry{relevant, irrelevant})

	if len(all) != 2 {
		t.Fatalf("all = %d entries, want 2", len(all))
	}
	if len(target) != 1 || target[0] != relevant {
		t.Fatalf("target = %v, want only the relevant entry", target)
	}
	for _, e := range target {
		if e.TotalScore() <= 0 {
			t.Errorf("target entry %q has total %d", e.Title, e.TotalScore())
		}
	}
}
