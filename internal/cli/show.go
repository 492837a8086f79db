package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/config"
	"github.com/ycwei/newsift/internal/store"
)

var (
	showSince  string
	showAll    bool
	showFormat string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored entries",
	RunE:  showAction,
}

func init() {
	showCmd.Flags().StringVar(&showSince, "since", "7d", "time window (e.g. 7d, 48h)")
	showCmd.Flags().BoolVar(&showAll, "all", false, "include entries below the relevance threshold")
	showCmd.Flags().StringVar(&showFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(showCmd)
}

func showAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	sinceDur, err := parseDuration(showSince)
	if err != nil {
		return fmt.Errorf("parse --since: %w", err)
	}

	entries, err := db.GetEntries(cmd.Context(), time.Now().Add(-sinceDur), !showAll)
	if err != nil {
		return fmt.Errorf("get entries: %w", err)
	}

	switch showFormat {
	case "json":
		return printEntriesJSON(entries)
	case "terminal", "":
		printEntries(entries, sinceDur)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", showFormat)
	}
}

type jsonEntry struct {
	Link       string         `json:"link"`
	Title      string         `json:"title"`
	Source     string         `json:"source"`
	Tags       []string       `json:"tags"`
	Scores     map[string]int `json:"scores"`
	TotalScore int            `json:"total_score"`
	Published  time.Time      `json:"published_at"`
}

func printEntriesJSON(entries []store.Entry) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{
			Link:       e.Link,
			Title:      e.Title,
			Source:     e.Source,
			Tags:       e.Tags,
			Scores:     e.Scores,
			TotalScore: e.TotalScore,
			Published:  e.PublishedAt,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printEntries(entries []store.Entry, since time.Duration) {
	if len(entries) == 0 {
		fmt.Println("No entries found. Run 'newsift run' first.")
		return
	}

	fmt.Printf("newsift — %d entries, since %s\n\n", len(entries), since)
	for _, e := range entries {
		tags := ""
		if len(e.Tags) > 0 {
			tags = " [" + strings.Join(e.Tags, ", ") + "]"
		}
		fmt.Printf("[%d]%s %s\n", e.TotalScore, tags, e.Title)
		fmt.Printf("    %s, %s — %s\n", e.Source, humanize.Time(e.PublishedAt), e.Link)
	}
}
