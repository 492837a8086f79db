package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ycwei/newsift/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline on a schedule until interrupted",
	Long: "watch runs 'newsift run' on the cron schedule from the config file.\n" +
		"There is no retry within a run; the next scheduled run is the retry.",
	RunE: watchAction,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchAction(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger()

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule.Spec, func() {
		if err := runAction(cmd, args); err != nil {
			log.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule.spec %q: %w", cfg.Schedule.Spec, err)
	}

	fmt.Printf("Watching on schedule %q, press Ctrl-C to stop\n", cfg.Schedule.Spec)
	c.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Let an in-flight run finish before exiting.
	<-c.Stop().Done()
	fmt.Println("Stopped")
	return nil
}
