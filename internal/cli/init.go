package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config and rule file",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterConfig = `fetch:
  workers: 20
  timeout: 120s

extract:
  workers: 10
  timeout: 60s

storage:
  path: .newsift/newsift.db

schedule:
  spec: "@hourly"
`

const starterRules = `rules:
  - name: tech
    include: ["AI", "chip"]
    tags: [technology]

  - name: politics
    include: [election]
    exclude: [sports]
    tags: [politics]
`

func initAction(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	wrote := false
	for _, f := range []struct {
		name    string
		content string
	}{
		{config.DefaultConfigFile, starterConfig},
		{config.DefaultRulesFile, starterRules},
	} {
		path := filepath.Join(configDir, f.name)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, skipping\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		wrote = true
	}

	if wrote {
		fmt.Fprintln(cmd.OutOrStdout(), "\nEdit the rule file, then try 'newsift run'.")
	}
	return nil
}
