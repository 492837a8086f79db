package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycwei/newsift/internal/extract"
	"github.com/ycwei/newsift/internal/fetch"
	"github.com/ycwei/newsift/internal/rules"
	"github.com/ycwei/newsift/internal/source"
)

// testSource serves one feed per category from a test server.
type testSource struct {
	name       string
	categories []string
	urls       map[string]string
	aggregator bool
}

func (s *testSource) Name() string         { return s.name }
func (s *testSource) Categories() []string { return s.categories }
func (s *testSource) Aggregator() bool     { return s.aggregator }

func (s *testSource) FeedURL(category string) (string, error) {
	u, ok := s.urls[category]
	if !ok {
		return "", source.ErrUnknownCategory
	}
	return u, nil
}

// fixedExtractor answers every article URL with the same text.
type fixedExtractor struct {
	text string
}

func (f fixedExtractor) Extract(_ context.Context, _ string) (string, error) {
	return f.text, nil
}

func rssFeed(items string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>feed</title><link>http://example.com</link><description>d</description>
%s
</channel></rss>`, items)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_EndToEnd(t *testing.T) {
	directItems := `
<item><title>晶片出口創新高</title><description>產業動態</description><link>http://example.com/chip</link></item>
<item><title>棒球季後賽開打</title><description>體育新聞</description><link>http://example.com/ball</link></item>`

	aggItems := `
<item><title>科技要聞 - 聯合新聞網</title>
<description><![CDATA[<ol><li><a href="https://news.local.example/story/9">科技要聞</a> <font>本地日報</font></li></ol>]]></description>
<link>http://news.google.example/agg</link></item>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		switch r.URL.Path {
		case "/direct":
			fmt.Fprint(w, rssFeed(directItems))
		default:
			fmt.Fprint(w, rssFeed(aggItems))
		}
	}))
	defer srv.Close()

	sources := source.NewRegistry()
	sources.Register(&testSource{
		name:       "direct",
		categories: []string{"direct"},
		urls:       map[string]string{"direct": srv.URL + "/direct"},
	})
	sources.Register(&testSource{
		name:       "agg",
		categories: []string{"TECHNOLOGY"},
		urls:       map[string]string{"TECHNOLOGY": srv.URL + "/agg"},
		aggregator: true,
	})

	// The aggregator's candidate links resolve to a fixed article body.
	reg := extract.NewRegistry(fixedExtractor{text: "fallback"})
	reg.Register("news.local.example", fixedExtractor{text: "台積電晶片產能滿載"})

	log := discardLogger()
	p := New(sources, fetch.New(nil, log), extract.NewEnricher(reg, log), log)

	rs := []rules.Rule{
		{Name: "tech", Include: []string{"晶片"}, Tags: []string{"technology"}},
	}

	res, err := p.Run(context.Background(), rs, Options{
		FeedWorkers:    4,
		FeedTimeout:    5 * time.Second,
		ExtractWorkers: 2,
		ExtractTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Feeds)
	require.Len(t, res.All, 3)

	// The direct entry with the keyword in its title and the enriched
	// aggregator entry are retained; the sports entry is not.
	require.Len(t, res.Target, 2)
	byTitle := make(map[string]bool, len(res.Target))
	for _, e := range res.Target {
		byTitle[e.Title] = true
	}
	assert.True(t, byTitle["晶片出口創新高"])
	assert.True(t, byTitle["科技要聞 - 聯合新聞網"])

	for _, e := range res.All {
		switch e.Title {
		case "晶片出口創新高":
			assert.Equal(t, 10, e.Scores["tech"], "title hit scores at title weight")
			assert.Contains(t, e.Tags, "technology")
			assert.Contains(t, e.Tags, "direct")
		case "科技要聞 - 聯合新聞網":
			// Enrichment put the article body where scoring can see it.
			assert.Contains(t, e.Description, "台積電晶片產能滿載")
			assert.Equal(t, 1, e.Scores["tech"], "description hit scores at description weight")
			assert.Contains(t, e.Tags, "TECHNOLOGY")
		case "棒球季後賽開打":
			assert.Equal(t, 0, e.TotalScore())
		default:
			t.Errorf("unexpected entry %q", e.Title)
		}
	}
}

func TestRun_NoSources(t *testing.T) {
	log := discardLogger()
	p := New(source.NewRegistry(), fetch.New(nil, log), extract.NewEnricher(extract.NewRegistry(fixedExtractor{}), log), log)

	_, err := p.Run(context.Background(), nil, Options{
		FeedTimeout:    time.Second,
		ExtractTimeout: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources")
}

func TestRun_InvalidTimeouts(t *testing.T) {
	log := discardLogger()
	sources := source.NewRegistry()
	sources.Register(&testSource{name: "direct", categories: []string{"x"}, urls: map[string]string{"x": "http://example.com"}})
	p := New(sources, fetch.New(nil, log), extract.NewEnricher(extract.NewRegistry(fixedExtractor{}), log), log)

	_, err := p.Run(context.Background(), nil, Options{FeedTimeout: 0, ExtractTimeout: time.Second})
	require.Error(t, err)

	_, err = p.Run(context.Background(), nil, Options{FeedTimeout: time.Second, ExtractTimeout: -1})
	require.Error(t, err)
}

func TestRun_UnreachableFeedsStillComplete(t *testing.T) {
	log := discardLogger()
	sources := source.NewRegistry()
	sources.Register(&testSource{
		name:       "dead",
		categories: []string{"x"},
		urls:       map[string]string{"x": "http://127.0.0.1:1/feed"},
	})
	p := New(sources, fetch.New(nil, log), extract.NewEnricher(extract.NewRegistry(fixedExtractor{}), log), log)

	res, err := p.Run(context.Background(), nil, Options{
		FeedWorkers:    1,
		FeedTimeout:    2 * time.Second,
		ExtractWorkers: 1,
		ExtractTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Feeds)
	assert.Empty(t, res.All)
	assert.Empty(t, res.Target)
}
