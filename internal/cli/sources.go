package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the registered feed providers and their categories",
	RunE:  sourcesAction,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesAction(cmd *cobra.Command, _ []string) error {
	for _, src := range source.DefaultRegistry().Sources() {
		kind := "full text"
		if src.Aggregator() {
			kind = "aggregator"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", src.Name(), kind)

		for _, category := range src.Categories() {
			u, err := src.FeedURL(category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-14s %s\n", category, u)
		}
	}
	return nil
}
