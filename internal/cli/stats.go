package cli

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/config"
	"github.com/ycwei/newsift/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show retention analytics for the stored entries",
	RunE:  statsAction,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	st, err := db.GetStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if st.Entries == 0 {
		fmt.Println("No entries stored. Run 'newsift run' first.")
		return nil
	}

	pct := 0.0
	if st.Entries > 0 {
		pct = float64(st.Target) / float64(st.Entries) * 100
	}

	fmt.Printf("Entries:    %s\n", humanize.Comma(int64(st.Entries)))
	fmt.Printf("Relevant:   %s (%.0f%%)\n", humanize.Comma(int64(st.Target)), pct)
	if !st.LastFetch.IsZero() {
		fmt.Printf("Last fetch: %s\n", humanize.Time(st.LastFetch))
	}

	sources := make([]string, 0, len(st.BySource))
	for src := range st.BySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	fmt.Println("\nBy source:")
	for _, src := range sources {
		fmt.Printf("  %-10s %s\n", src, humanize.Comma(int64(st.BySource[src])))
	}

	return nil
}
