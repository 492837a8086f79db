// Package fetch retrieves and normalizes RSS feeds for every registered
// (source, category) pair.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ycwei/newsift/internal/news"
	"github.com/ycwei/newsift/internal/source"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; newsift/1.0; +https://github.com/ycwei/newsift)"
	requestTimeout = 30 * time.Second
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindHTTP    Kind = "http"
	KindNetwork Kind = "network"
	KindTimeout Kind = "timeout"
)

// FetchError is a per-feed failure. It is always caught and logged at the
// fetch-task boundary and never propagates past FetchAll.
type FetchError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads feeds with a bounded worker pool.
type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

// New creates a Fetcher. A nil client gets a default with a per-request
// timeout and the shared User-Agent; a nil logger falls back to stderr.
func New(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{
			Timeout:   requestTimeout,
			Transport: &uaTransport{base: http.DefaultTransport},
		}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Fetcher{client: client, log: log}
}

// uaTransport injects the User-Agent header into every request.
type uaTransport struct {
	base http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}

type task struct {
	src      source.Source
	category string
	url      string
}

type result struct {
	feed *news.Feed
	err  error
	url  string
}

// FetchAll fetches one feed per (source, category) pair of every registered
// provider, at most workers at a time, within a wall-clock budget for the
// whole batch. Results arrive in completion order; a fast source never waits
// behind a slow one.
//
// Failure policy: a single failing feed is logged and skipped, never aborting
// the batch. When the budget elapses, tasks still in flight are abandoned and
// whatever completed so far is returned.
func (f *Fetcher) FetchAll(ctx context.Context, reg *source.Registry, workers int, timeout time.Duration) []*news.Feed {
	tasks := buildTasks(reg, f.log)
	if len(tasks) == 0 {
		return nil
	}
	if workers <= 0 || workers > len(tasks) {
		workers = len(tasks)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	jobs := make(chan task)
	// Buffered to the task count so abandoned workers can always deliver
	// their result and exit instead of blocking forever.
	results := make(chan result, len(tasks))

	for i := 0; i < workers; i++ {
		go func() {
			for t := range jobs {
				feed, err := f.fetchOne(ctx, t)
				results <- result{feed: feed, err: err, url: t.url}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range tasks {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	f.log.Info("fetching feeds", "count", len(tasks), "workers", workers)

	var feeds []*news.Feed
	for done := 0; done < len(tasks); done++ {
		select {
		case r := <-results:
			if r.err != nil {
				f.log.Warn("feed skipped", "url", r.url, "error", r.err)
				continue
			}
			feeds = append(feeds, r.feed)
		case <-ctx.Done():
			f.log.Warn("fetch budget elapsed, returning partial results",
				"completed", len(feeds), "total", len(tasks))
			return feeds
		}
	}

	return feeds
}

func buildTasks(reg *source.Registry, log *slog.Logger) []task {
	var tasks []task
	for _, src := range reg.Sources() {
		for _, category := range src.Categories() {
			u, err := src.FeedURL(category)
			if err != nil {
				// Cannot happen for a provider's own categories.
				log.Error("feed url", "source", src.Name(), "category", category, "error", err)
				continue
			}
			tasks = append(tasks, task{src: src, category: category, url: u})
		}
	}
	return tasks
}

// fetchOne probes the URL, then parses the feed. The probe exists because
// feed-parsing libraries tend to swallow HTTP errors and return an empty
// document instead.
func (f *Fetcher) fetchOne(ctx context.Context, t task) (*news.Feed, error) {
	if err := f.probe(ctx, t.url); err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	fp.Client = f.client
	parsed, err := fp.ParseURLWithContext(t.url, ctx)
	if err != nil {
		return nil, &FetchError{Kind: classify(err), URL: t.url, Err: err}
	}

	return feedFromParsed(parsed, t), nil
}

func (f *Fetcher) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &FetchError{Kind: classify(err), URL: url, Err: err}
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &FetchError{
			Kind: KindHTTP,
			URL:  url,
			Err:  fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	return nil
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

func feedFromParsed(parsed *gofeed.Feed, t task) *news.Feed {
	feed := &news.Feed{
		Title:    parsed.Title,
		Subtitle: parsed.Description,
		// Feed metadata sometimes carries a broken self link; the request
		// URL is the one we know is right.
		Link:      t.url,
		Language:  parsed.Language,
		Published: parsedTime(parsed.PublishedParsed, parsed.UpdatedParsed),
		Entries:   make([]*news.Entry, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		e := &news.Entry{
			Title:       item.Title,
			Description: itemDescription(item),
			Link:        item.Link,
			Published:   parsedTime(item.PublishedParsed, item.UpdatedParsed),
			Source:      t.src.Name(),
		}
		e.AddTags(t.category)
		feed.Entries = append(feed.Entries, e)
	}

	return feed
}

func itemDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

func parsedTime(published, updated *time.Time) time.Time {
	if published != nil {
		return *published
	}
	if updated != nil {
		return *updated
	}
	return time.Now().UTC()
}
