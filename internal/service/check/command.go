package check

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/oshokin/gfs-monitor/internal/activitylog"
	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/logger"
	"github.com/oshokin/gfs-monitor/internal/notify"
	repo "github.com/oshokin/gfs-monitor/internal/repository/state"
	"github.com/oshokin/gfs-monitor/internal/service/monitor"
	"github.com/oshokin/gfs-monitor/internal/service/nomads"
)

// Options controls a single monitoring pass.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// lockSuffix is appended to the state path to name the run lock.
const lockSuffix = ".lock"

// Run performs one monitoring pass and returns.
// Probe and send failures are logged and do not make Run fail; only an
// unusable configuration or environment does.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "gfs-monitor")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ApplyLogLevel(ctx, cfg.LogLevel)

	ctx = logger.WithFields(ctx, "run_id", uuid.NewString(), "host", hostname())

	// Refuse to overlap with another pass on the same state.
	lock := flock.New(cfg.StateFile + lockSuffix)

	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock %s: %w", lock.Path(), err)
	}

	if !locked {
		logger.WarnKV(ctx, "Another pass holds the run lock, skipping", "lock", lock.Path())

		return nil
	}

	defer func() {
		_ = lock.Unlock()
	}()

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	m, closeStore, err := build(ctx, cfg, now)
	if err != nil {
		return err
	}

	defer closeStore()

	result, err := m.Check(ctx)
	if err != nil {
		// The notification went out; the next pass will repeat it.
		logger.ErrorKV(ctx, "Pass finished with unsaved state", "result", result.String(), "error", err)

		return nil
	}

	logger.InfoKV(ctx, "Pass finished", "result", result.String())

	return nil
}

// build wires the monitor for cfg and returns a function releasing the state store.
func build(ctx context.Context, cfg *config.Config, now func() time.Time) (*monitor.Monitor, func(), error) {
	client, err := nomads.NewClient(cfg.BaseURL, nomads.LayoutFromConfig(cfg), nomads.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("create nomads client: %w", err)
	}

	sink, err := notify.New(&cfg.Notifier)
	if err != nil {
		return nil, nil, fmt.Errorf("create notifier: %w", err)
	}

	store, err := repo.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open state store: %w", err)
	}

	closeStore := func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close state store", "error", closeErr)
		}
	}

	opts := []monitor.Option{monitor.WithClock(now)}
	if cfg.ActivityLog != "" {
		activity := activitylog.New(cfg.ActivityLog,
			activitylog.WithLimit(cfg.ActivityLogLimit),
			activitylog.WithClock(now),
		)

		opts = append(opts, monitor.WithActivityLog(activity))
	}

	logger.DebugKV(ctx, "Monitor wired",
		"base_url", cfg.BaseURL,
		"state", store.Path(),
		"notifier", cfg.Notifier.Kind,
		"activity_log", cfg.ActivityLog,
	)

	return monitor.New(client, client, sink, store, opts...), closeStore, nil
}

// hostname names the machine running the pass in log lines.
func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}

	return name
}

// ApplyLogLevel sets the global log level from the settings, keeping the
// current one when the value is not recognized.
func ApplyLogLevel(ctx context.Context, level string) {
	lvl, ok := logger.ParseLogLevel(level)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, keeping current", "log_level", level)

		return
	}

	logger.SetLevel(lvl)
}
