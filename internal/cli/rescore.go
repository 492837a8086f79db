package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/config"
	"github.com/ycwei/newsift/internal/rules"
	"github.com/ycwei/newsift/internal/store"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute scores for stored entries using the current rule file",
	RunE:  rescoreAction,
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}

func rescoreAction(cmd *cobra.Command, _ []string) error {
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

	ctx := cmd.Context()

	n, err := rescoreStored(ctx, db, rs)
	if err != nil {
		return err
	}
	if err := db.ReplaceRules(ctx, rs); err != nil {
		return fmt.Errorf("store rules: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rescored %d entries\n", n)
	return nil
}
