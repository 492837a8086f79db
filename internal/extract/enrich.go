package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ycwei/newsift/internal/news"
)

// Candidate is one syndicated copy of a story taken from an aggregator
// entry's description, in document order.
type Candidate struct {
	Title  string
	Source string // publisher display name, e.g. "中央社即時新聞"
	Link   string
	Domain string
}

// ParseCandidates reads an aggregator description, which is an HTML list of
// links to local publishers carrying the same story:
//
//	<li><a href="...">headline</a> <font>publisher</font></li>
//
// Items without a usable link are skipped.
func ParseCandidates(descriptionHTML string) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(descriptionHTML))
	if err != nil {
		return nil
	}

	var candidates []Candidate
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("a").First()
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		candidates = append(candidates, Candidate{
			Title:  strings.TrimSpace(a.Text()),
			Source: strings.TrimSpace(li.Find("font").First().Text()),
			Link:   href,
			Domain: domainOf(href),
		})
	})
	return candidates
}

// Enricher replaces aggregator entry descriptions with extracted article
// text, dispatching to the registry per candidate domain.
type Enricher struct {
	reg *Registry
	log *slog.Logger
}

func NewEnricher(reg *Registry, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Enricher{reg: reg, log: log}
}

// EnrichAll enriches the given entries with a bounded worker pool, within a
// wall-clock budget for the whole batch. Workers never mutate entries;
// enriched text is applied here, so an entry whose extraction is still in
// flight when the budget elapses simply keeps its raw description. Entries
// are never dropped by enrichment.
func (en *Enricher) EnrichAll(ctx context.Context, entries []*news.Entry, workers int, timeout time.Duration) {
	if len(entries) == 0 {
		return
	}
	if workers <= 0 || workers > len(entries) {
		workers = len(entries)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		idx  int
		text string
		ok   bool
	}

	jobs := make(chan int)
	// Buffered so abandoned workers can always deliver and exit.
	results := make(chan outcome, len(entries))

	for i := 0; i < workers; i++ {
		go func() {
			for idx := range jobs {
				text, ok := en.enrich(ctx, entries[idx])
				results <- outcome{idx: idx, text: text, ok: ok}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range entries {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	en.log.Info("enriching entries", "count", len(entries), "workers", workers)

	enriched := 0
	for done := 0; done < len(entries); done++ {
		select {
		case r := <-results:
			if r.ok {
				entries[r.idx].Description = r.text
				enriched++
			}
		case <-ctx.Done():
			en.log.Warn("enrichment budget elapsed, remaining entries keep raw descriptions",
				"enriched", enriched, "total", len(entries))
			return
		}
	}
}

// enrich resolves one entry's article text from its candidate links:
//
//  1. Candidates whose domain matches a registered extractor are tried in
//     document order; a network failure moves on to the next match.
//  2. Only when no registered extractor produced text, every candidate is
//     retried in order with the default extractor.
//  3. If everything fails, the raw description stays as-is.
func (en *Enricher) enrich(ctx context.Context, e *news.Entry) (string, bool) {
	candidates := ParseCandidates(e.Description)
	if len(candidates) == 0 {
		en.log.Warn("no candidate links in aggregator entry", "title", e.Title)
		return "", false
	}

	for _, c := range candidates {
		ex, ok := en.reg.Resolve(c.Domain)
		if !ok {
			continue
		}
		text, err := ex.Extract(ctx, c.Link)
		if err != nil {
			en.log.Debug("candidate extraction failed", "url", c.Link, "error", err)
			continue
		}
		return fmt.Sprintf("(extracted from %q)\n%s", c.Source, text), true
	}

	for _, c := range candidates {
		text, err := en.reg.Default().Extract(ctx, c.Link)
		if err != nil {
			en.log.Debug("default extraction failed", "url", c.Link, "error", err)
			continue
		}
		return fmt.Sprintf("(extracted from %q by default extractor)\n%s", c.Source, text), true
	}

	en.log.Warn("every candidate failed, keeping raw description", "title", e.Title)
	return "", false
}
