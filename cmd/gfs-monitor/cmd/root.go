package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/service/check"
	"github.com/oshokin/gfs-monitor/internal/service/selftest"
	"github.com/oshokin/gfs-monitor/internal/service/status"
	"github.com/oshokin/gfs-monitor/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// entries is the number of activity entries printed by `status`.
	entries int

	// rootCmd represents the base command performing one monitoring pass.
	rootCmd = &cobra.Command{
		Use:   "gfs-monitor",
		Short: "Check NOMADS once and notify about GFS cycles.",
		Long: `Performs a single monitoring pass over the NOAA GFS 0.25° folder on NOMADS.

Lists today's (UTC) day directory, picks the newest started cycle and sends a
"cycle started" notification the first time it is seen. For a known cycle it
checks the last forecast index file and sends "cycle complete" once it exists.
What was delivered is recorded in the configured state file (state_file, JSON
or SQLite), so repeated invocations never notify twice. Meant to be run every few minutes by cron or a systemd timer.

Probe and delivery failures are logged and retried on the next invocation;
the command exits non-zero only when the configuration is unusable.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return check.Run(ctx, &check.Options{ConfigPath: configPath})
		},
	}

	// statusCmd prints the stored state and recent activity.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the stored cycle state and recent activity.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return status.Run(cmd.Context(), &status.Options{
				ConfigPath: configPath,
				Entries:    entries,
				Out:        cmd.OutOrStdout(),
			})
		},
	}

	// notifyTestCmd sends a test message through the configured notifier.
	notifyTestCmd = &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test notification.",
		Long:  "Sends a test message through the configured notifier and fails if it is not delivered.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return selftest.Run(cmd.Context(), &selftest.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the gfs-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file (the default one may be absent)")

	statusCmd.Flags().IntVarP(&entries, "entries", "n", status.DefaultEntries, "number of activity entries to show")

	rootCmd.AddCommand(statusCmd, notifyTestCmd)
}
