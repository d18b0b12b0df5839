package selftest

import (
	"context"
	"fmt"

	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/logger"
	"github.com/oshokin/gfs-monitor/internal/notify"
)

// Options controls the notification test.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
}

// Run sends a test message through the configured sink.
// Unlike a monitoring pass, a failed delivery is returned as an error.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "notify-test")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	sink, err := notify.New(&cfg.Notifier)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}

	ctx = logger.WithKV(ctx, "notifier", cfg.Notifier.Kind)

	if err = sink.Send(ctx, notify.TestMessage()); err != nil {
		return fmt.Errorf("send test message: %w", err)
	}

	logger.Info(ctx, "Test message delivered")

	return nil
}
