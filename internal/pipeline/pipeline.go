// Package pipeline sequences the run: fetch every registered feed, enrich
// aggregator entries with extracted article text, score everything against
// the active rules, and split out the entries worth retaining.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ycwei/newsift/internal/extract"
	"github.com/ycwei/newsift/internal/fetch"
	"github.com/ycwei/newsift/internal/news"
	"github.com/ycwei/newsift/internal/rules"
	"github.com/ycwei/newsift/internal/score"
	"github.com/ycwei/newsift/internal/source"
)

// Options are the per-run pool sizes and wall-clock budgets. The two tiers
// are independent: feed fetching and entry extraction each get their own
// worker count and timeout.
type Options struct {
	FeedWorkers    int
	FeedTimeout    time.Duration
	ExtractWorkers int
	ExtractTimeout time.Duration
}

// Result is the outcome of one run. Target is the subset of All with a
// strictly positive total score, in the same relative order.
type Result struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Feeds     int
	All       []*news.Entry
	Target    []*news.Entry
}

// Pipeline owns no state beyond the current run.
type Pipeline struct {
	sources  *source.Registry
	fetcher  *fetch.Fetcher
	enricher *extract.Enricher
	log      *slog.Logger
}

func New(sources *source.Registry, fetcher *fetch.Fetcher, enricher *extract.Enricher, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Pipeline{sources: sources, fetcher: fetcher, enricher: enricher, log: log}
}

// Run executes one pass. Only setup problems return an error; fetch and
// extraction faults reduce data completeness instead of aborting, so a run
// with unreachable feeds still completes with whatever was collected.
func (p *Pipeline) Run(ctx context.Context, rs []rules.Rule, opts Options) (*Result, error) {
	if p.sources == nil || len(p.sources.Sources()) == 0 {
		return nil, errors.New("pipeline: no sources registered")
	}
	if opts.FeedTimeout <= 0 || opts.ExtractTimeout <= 0 {
		return nil, errors.New("pipeline: timeouts must be positive")
	}

	start := time.Now()

	feeds := p.fetcher.FetchAll(ctx, p.sources, opts.FeedWorkers, opts.FeedTimeout)

	var entries []*news.Entry
	var toEnrich []*news.Entry
	for _, feed := range feeds {
		for _, e := range feed.Entries {
			entries = append(entries, e)
			if src, ok := p.sources.Lookup(e.Source); ok && src.Aggregator() {
				toEnrich = append(toEnrich, e)
			}
		}
	}

	p.enricher.EnrichAll(ctx, toEnrich, opts.ExtractWorkers, opts.ExtractTimeout)

	for _, e := range entries {
		score.Apply(e, rs, p.log)
	}
	all, target := score.Partition(entries)

	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Elapsed:   time.Since(start),
		Feeds:     len(feeds),
		All:       all,
		Target:    target,
	}

	p.log.Info("run complete",
		"run_id", res.RunID,
		"feeds", res.Feeds,
		"entries", len(res.All),
		"target", len(res.Target),
		"elapsed", res.Elapsed)

	return res, nil
}
