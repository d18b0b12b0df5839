package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/oshokin/gfs-monitor/internal/activitylog"
	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/domain/cycle"
	"github.com/oshokin/gfs-monitor/internal/logger"
	repo "github.com/oshokin/gfs-monitor/internal/repository/state"
)

// DefaultEntries is the number of activity entries shown by default.
const DefaultEntries = 10

// Options controls the status report.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Entries is the number of newest activity entries to print.
	Entries int
	// Out receives the report, stdout when nil.
	Out io.Writer
}

// Run prints the stored state and the newest activity entries.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "status")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	entries := opts.Entries
	if entries <= 0 {
		entries = DefaultEntries
	}

	store, err := repo.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	defer func() {
		_ = store.Close()
	}()

	state, loadErr := store.Load(ctx)
	if loadErr != nil && !errors.Is(loadErr, repo.ErrNotFound) {
		logger.WarnKV(ctx, "Failed to read state", "error", loadErr)
	}

	activity := activitylog.New(cfg.ActivityLog)

	tail, err := activity.Tail(entries)
	if err != nil {
		return fmt.Errorf("read activity log: %w", err)
	}

	total, err := activity.Len()
	if err != nil {
		return fmt.Errorf("read activity log: %w", err)
	}

	_, err = fmt.Fprintln(out, renderState(cfg, store.Path(), state, loadErr))
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	_, err = fmt.Fprintln(out, renderActivity(tail, total))
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// renderState draws the key-value table of the stored state.
func renderState(cfg *config.Config, path string, state *cycle.State, loadErr error) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("State")

	lastCycle, completed := "none", "false"

	switch {
	case loadErr != nil && !errors.Is(loadErr, repo.ErrNotFound):
		lastCycle = "unreadable: " + loadErr.Error()
	case state != nil && !state.LastCycle.IsZero():
		lastCycle = state.LastCycle.String()
		completed = strconv.FormatBool(state.IsCompleted)
	}

	tw.AppendRows([]table.Row{
		{"Last cycle", lastCycle},
		{"Completed", completed},
		{"Backend", cfg.StateBackend},
		{"State file", path},
		{"Notifier", cfg.Notifier.Kind},
		{"Source", cfg.BaseURL},
	})

	return tw.Render()
}

// renderActivity draws the activity entries, splitting the kind prefix into
// its own column.
func renderActivity(entries []activitylog.Entry, total int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Activity (last %d of %d)", len(entries), total)
	tw.AppendHeader(table.Row{"Time", "Kind", "Message"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignCenter},
	})

	if len(entries) == 0 {
		tw.AppendRow(table.Row{"", "", "no activity recorded"})
	}

	for _, e := range entries {
		stamp := ""
		if !e.Timestamp.IsZero() {
			stamp = e.Timestamp.Format("2006-01-02 15:04:05")
		}

		kind, message := splitKind(e.Message)
		tw.AppendRow(table.Row{stamp, kind, message})
	}

	return tw.Render()
}

// splitKind separates "KIND: message".
func splitKind(message string) (string, string) {
	kind, rest, ok := strings.Cut(message, ": ")
	if !ok || kind == "" || strings.ToUpper(kind) != kind || strings.ContainsAny(kind, " ") {
		return "", message
	}

	return kind, rest
}
