package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/service/scheduler"
	"github.com/oshokin/gfs-monitor/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// schedule overrides the cron expression from the configuration.
	schedule string
	// runNow triggers a pass right after startup.
	runNow bool

	// rootCmd represents the base command running passes on a schedule.
	rootCmd = &cobra.Command{
		Use:   "gfs-scheduler",
		Short: "Run gfs-monitor passes on a cron schedule.",
		Long: `Long-running companion for hosts without cron or systemd timers.

Runs exactly the same pass as gfs-monitor on every tick of a standard
five-field cron expression evaluated in UTC (every ten minutes by default).
A tick that arrives while the previous pass is still running is skipped.
Stops gracefully on SIGINT or SIGTERM after the running pass finishes.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return scheduler.Run(ctx, &scheduler.Options{
				ConfigPath: configPath,
				Schedule:   schedule,
				RunNow:     runNow,
			})
		},
	}
)

// Execute runs the gfs-scheduler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file (the default one may be absent)")
	rootCmd.Flags().StringVarP(&schedule, "schedule", "s", "", "cron expression overriding the configuration")
	rootCmd.Flags().BoolVar(&runNow, "now", false, "run a pass immediately after startup")
}
