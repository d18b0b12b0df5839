package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/logger"
	"github.com/oshokin/gfs-monitor/internal/service/check"
)

// PassFunc runs one monitoring pass.
type PassFunc func(ctx context.Context, opts *check.Options) error

// Options controls the bundled scheduler.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Schedule overrides the cron expression from the settings.
	Schedule string
	// RunNow runs a pass immediately instead of waiting for the first tick.
	RunNow bool
	// Pass replaces check.Run, mostly for tests.
	Pass PassFunc
}

// Run triggers a monitoring pass on every tick of the schedule until ctx is
// canceled. A tick arriving while the previous pass still runs is skipped.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "gfs-scheduler")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	check.ApplyLogLevel(ctx, cfg.LogLevel)

	schedule := cfg.Schedule
	if opts.Schedule != "" {
		schedule = opts.Schedule
	}

	pass := opts.Pass
	if pass == nil {
		pass = check.Run
	}

	engineLogger := newCronLogger(ctx)

	engine := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(engineLogger),
		cron.WithChain(cron.Recover(engineLogger), cron.SkipIfStillRunning(engineLogger)),
	)

	job := cron.FuncJob(func() {
		runPass(ctx, pass, opts.ConfigPath)
	})

	id, err := engine.AddJob(schedule, job)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	if opts.RunNow {
		runPass(ctx, pass, opts.ConfigPath)
	}

	engine.Start()

	logger.InfoKV(ctx, "Scheduler started", "schedule", schedule, "next", engine.Entry(id).Next.Format(time.RFC3339))

	<-ctx.Done()

	logger.Info(ctx, "Context canceled, waiting for the running pass")

	<-engine.Stop().Done()

	logger.Info(ctx, "Scheduler stopped")

	return nil
}

// runPass runs one pass and logs its error.
func runPass(ctx context.Context, pass PassFunc, configPath string) {
	if ctx.Err() != nil {
		return
	}

	if err := pass(ctx, &check.Options{ConfigPath: configPath}); err != nil {
		logger.ErrorKV(ctx, "Monitoring pass failed", "error", err)
	}
}

// cronLogger adapts the context logger to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

// newCronLogger returns the engine logger. Per-tick messages are only shown
// at debug level.
func newCronLogger(ctx context.Context) cronLogger {
	log := logger.FromContext(ctx).Named("cron")
	if logger.Level() > zapcore.DebugLevel {
		log = log.WithOptions(logger.WithLevel(zapcore.WarnLevel))
	}

	return cronLogger{log: log}
}

// Info logs routine engine events.
func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Infow(msg, keysAndValues...)
}

// Error logs engine failures such as recovered panics.
func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
