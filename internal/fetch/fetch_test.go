package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycwei/newsift/internal/source"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <description>A feed for tests</description>
    <link>http://example.com</link>
    <language>en</language>
    <item>
      <title>First story</title>
      <description>alpha body</description>
      <link>http://example.com/1</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Second story</title>
      <description>beta body</description>
      <link>http://example.com/2</link>
    </item>
  </channel>
</rss>`

// testSource is a provider whose feed URLs point at a test server.
type testSource struct {
	name       string
	categories []string
	urls       map[string]string
}

func (s *testSource) Name() string         { return s.name }
func (s *testSource) Categories() []string { return s.categories }
func (s *testSource) Aggregator() bool     { return false }

func (s *testSource) FeedURL(category string) (string, error) {
	u, ok := s.urls[category]
	if !ok {
		return "", source.ErrUnknownCategory
	}
	return u, nil
}

func registryFor(serverURL string, categories ...string) *source.Registry {
	urls := make(map[string]string, len(categories))
	for _, c := range categories {
		urls[c] = serverURL + "/" + c
	}
	reg := source.NewRegistry()
	reg.Register(&testSource{name: "test", categories: categories, urls: urls})
	return reg
}

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(&http.Client{Timeout: 5 * time.Second}, log)
}

func TestFetchAll_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()

	reg := registryFor(srv.URL, "WORLD", "TECHNOLOGY")

	feeds := testFetcher(t).FetchAll(context.Background(), reg, 4, 5*time.Second)

	require.Len(t, feeds, 2)
	for _, feed := range feeds {
		assert.Equal(t, "Test Feed", feed.Title)
		assert.Equal(t, "A feed for tests", feed.Subtitle)
		require.Len(t, feed.Entries, 2)

		// Entry order matches the document order of the feed.
		assert.Equal(t, "First story", feed.Entries[0].Title)
		assert.Equal(t, "Second story", feed.Entries[1].Title)

		for _, e := range feed.Entries {
			assert.Equal(t, "test", e.Source)
			assert.False(t, e.Published.IsZero())
		}
	}

	// Each feed's entries carry their category as a tag.
	var categories []string
	for _, feed := range feeds {
		categories = append(categories, feed.Entries[0].Tags...)
	}
	slices.Sort(categories)
	assert.Equal(t, []string{"TECHNOLOGY", "WORLD"}, categories)
}

func TestFetchAll_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad1", "/bad2":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprint(w, rssBody)
		}
	}))
	defer srv.Close()

	reg := registryFor(srv.URL, "ok1", "bad1", "ok2", "bad2", "ok3")

	// Two of five feeds fail; the other three come back and nothing panics
	// or aborts.
	feeds := testFetcher(t).FetchAll(context.Background(), reg, 5, 5*time.Second)

	assert.Len(t, feeds, 3)
}

func TestFetchAll_BatchTimeout(t *testing.T) {
	slowRelease := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			<-slowRelease
			return
		}
		fmt.Fprint(w, rssBody)
	}))
	defer srv.Close()
	// Deferred after srv.Close so it runs first: the blocked handler must be
	// released before Close can wait out in-flight requests.
	defer close(slowRelease)

	reg := registryFor(srv.URL, "fast1", "fast2", "slow")

	start := time.Now()
	feeds := testFetcher(t).FetchAll(context.Background(), reg, 3, 500*time.Millisecond)
	elapsed := time.Since(start)

	// The slow feed is abandoned; the fast ones are returned.
	assert.Len(t, feeds, 2)
	assert.Less(t, elapsed, 3*time.Second, "FetchAll must not block past its budget")
}

func TestFetchAll_ProbeRejectsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	reg := registryFor(srv.URL, "gone")

	feeds := testFetcher(t).FetchAll(context.Background(), reg, 1, 5*time.Second)

	assert.Empty(t, feeds)
}

func TestFetchError_Classification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := testFetcher(t)
	err := f.probe(context.Background(), srv.URL)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindHTTP, fe.Kind)
	assert.Equal(t, srv.URL, fe.URL)

	// Unreachable host classifies as a network error.
	err = f.probe(context.Background(), "http://127.0.0.1:1/feed")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindNetwork, fe.Kind)
}

func TestFetchAll_EmptyRegistry(t *testing.T) {
	feeds := testFetcher(t).FetchAll(context.Background(), source.NewRegistry(), 4, time.Second)
	assert.Empty(t, feeds)
}
