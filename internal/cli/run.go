package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/config"
	"github.com/ycwei/newsift/internal/extract"
	"github.com/ycwei/newsift/internal/fetch"
	"github.com/ycwei/newsift/internal/pipeline"
	"github.com/ycwei/newsift/internal/rules"
	"github.com/ycwei/newsift/internal/source"
	"github.com/ycwei/newsift/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, enrich, and score news, storing the relevant entries",
	RunE:  runAction,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAction(cmd *cobra.Command, _ []string) error {
	// Configuration and rule problems are the only fatal errors, and they
	// must surface here, before any network I/O happens.
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rs, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	log := newLogger()
	ctx := cmd.Context()

	// A changed rule file invalidates previously stored scores; replay
	// scoring over the stored entries before mixing in new ones.
	stored, err := db.LoadRules(ctx)
	if err != nil {
		return fmt.Errorf("load stored rules: %w", err)
	}
	if len(stored) > 0 && !rules.Equal(stored, rs) {
		n, err := rescoreStored(ctx, db, rs)
		if err != nil {
			return fmt.Errorf("rescore after rule change: %w", err)
		}
		fmt.Printf("Rule set changed; rescored %d stored entries\n", n)
	}
	if err := db.ReplaceRules(ctx, rs); err != nil {
		return fmt.Errorf("store rules: %w", err)
	}

	p := pipeline.New(
		source.DefaultRegistry(),
		fetch.New(nil, log),
		extract.NewEnricher(extract.DefaultRegistry(nil, log), log),
		log,
	)

	res, err := p.Run(ctx, rs, pipeline.Options{
		FeedWorkers:    cfg.Fetch.Workers,
		FeedTimeout:    cfg.Fetch.Timeout.Duration,
		ExtractWorkers: cfg.Extract.Workers,
		ExtractTimeout: cfg.Extract.Timeout.Duration,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	for _, e := range res.Target {
		err := db.SaveEntry(ctx, store.EntryInput{
			Link:        e.Link,
			Title:       e.Title,
			Description: e.Description,
			Source:      e.Source,
			Tags:        e.Tags,
			Scores:      e.Scores,
			TotalScore:  e.TotalScore(),
			PublishedAt: e.Published,
			FetchedAt:   now,
			RunID:       res.RunID,
		})
		if err != nil {
			return fmt.Errorf("store entry %s: %w", e.Link, err)
		}
	}

	fmt.Printf("Retained %d of %d entries from %d feeds (%.1fs)\n",
		len(res.Target), len(res.All), res.Feeds, res.Elapsed.Seconds())

	return nil
}

// rescoreStored replays scoring over every stored entry with the given rule
// set. Stored entries already carry extracted text, so this is pure compute.
func rescoreStored(ctx context.Context, db *store.Store, rs []rules.Rule) (int, error) {
	entries, err := db.GetEntries(ctx, time.Time{}, false)
	if err != nil {
		return 0, fmt.Errorf("load stored entries: %w", err)
	}

	for _, e := range entries {
		scores, tags, total := rescoreEntry(e, rs)
		if err := db.UpdateEntryScores(ctx, e.Link, scores, tags, total); err != nil {
			return 0, err
		}
	}

	return len(entries), nil
}
