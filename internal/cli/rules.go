package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/config"
	"github.com/ycwei/newsift/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and display the active rule file",
	RunE:  rulesAction,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func rulesAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rs, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d rules in %s\n\n", len(rs), cfg.Rules.Path)
	for _, r := range rs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", r.Name)
		if len(r.Include) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  include: %s\n", strings.Join(r.Include, ", "))
		}
		if len(r.Exclude) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  exclude: %s\n", strings.Join(r.Exclude, ", "))
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  tags:    %s\n", strings.Join(r.Tags, ", "))
		}
	}
	return nil
}
