package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/gfs-monitor/internal/domain/cycle"
	"github.com/oshokin/gfs-monitor/internal/logger"
	"github.com/oshokin/gfs-monitor/internal/notify"
	repo "github.com/oshokin/gfs-monitor/internal/repository/state"
	"github.com/oshokin/gfs-monitor/internal/service/nomads"
)

// ListingProbe reports which cycles of a day have started.
type ListingProbe interface {
	ListCycles(ctx context.Context, date cycle.Date) nomads.Listing
}

// CompletionProbe reports whether a cycle's marker file is published.
type CompletionProbe interface {
	CheckCompletion(ctx context.Context, id cycle.Identity) nomads.Completion
}

// ActivityLog receives the human-readable audit trail of a pass.
type ActivityLog interface {
	Appendf(format string, args ...any) error
}

// Result names the branch a pass took.
type Result int

// Pass results.
const (
	// ResultUnreachable means the day listing could not be fetched.
	ResultUnreachable Result = iota
	// ResultNoCycle means no cycle of today has started yet.
	ResultNoCycle
	// ResultStarted means a new cycle was announced and recorded.
	ResultStarted
	// ResultStartSendFailed means a new cycle was seen but the announcement failed.
	ResultStartSendFailed
	// ResultInProgress means the known cycle is still being published.
	ResultInProgress
	// ResultCompletionUnreachable means the marker file check failed.
	ResultCompletionUnreachable
	// ResultCompleted means the known cycle was announced as complete and recorded.
	ResultCompleted
	// ResultCompleteSendFailed means the marker was found but the announcement failed.
	ResultCompleteSendFailed
	// ResultAlreadyComplete means nothing is left to do until the next cycle.
	ResultAlreadyComplete
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch r {
	case ResultUnreachable:
		return "unreachable"
	case ResultNoCycle:
		return "no_cycle"
	case ResultStarted:
		return "started"
	case ResultStartSendFailed:
		return "start_send_failed"
	case ResultInProgress:
		return "in_progress"
	case ResultCompletionUnreachable:
		return "completion_unreachable"
	case ResultCompleted:
		return "completed"
	case ResultCompleteSendFailed:
		return "complete_send_failed"
	case ResultAlreadyComplete:
		return "already_complete"
	default:
		return "unknown"
	}
}

// Activity log prefixes.
const (
	prefixError = "ERROR"
	prefixInfo  = "INFO"
	prefixAlert = "ALERT"
	prefixCheck = "CHECK"
)

// Monitor decides, once per pass, whether a start or completion
// notification is due and records what was delivered.
type Monitor struct {
	// listing probes the day directory.
	listing ListingProbe
	// completion probes the marker file.
	completion CompletionProbe
	// sink delivers notifications.
	sink notify.Sink
	// repo persists the dedup state.
	repo repo.Repository
	// activity receives audit lines, may be nil.
	activity ActivityLog
	// now is read once per pass to decide what "today" is.
	now func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithActivityLog attaches an audit log.
func WithActivityLog(activity ActivityLog) Option {
	return func(m *Monitor) {
		m.activity = activity
	}
}

// New returns a monitor wired to the given probes, sink and state repository.
func New(listing ListingProbe, completion CompletionProbe, sink notify.Sink, repository repo.Repository, opts ...Option) *Monitor {
	m := &Monitor{
		listing:    listing,
		completion: completion,
		sink:       sink,
		repo:       repository,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Check runs a single pass of the state machine.
// Probe and send failures are reported through the Result and never mutate
// the state. The error is non-nil only when a delivered notification could
// not be recorded, in which case the next pass will send it again.
func (m *Monitor) Check(ctx context.Context) (Result, error) {
	today := cycle.DateOf(m.now())
	ctx = logger.WithKV(ctx, "date", today.String())

	state := m.loadState(ctx)

	m.record(ctx, prefixCheck, "Checking cycles for %s (last: %s, completed: %t)",
		today.Compact(), displayIdentity(state.LastCycle), state.IsCompleted)

	listing := m.listing.ListCycles(ctx, today)

	switch listing.Outcome {
	case nomads.Unreachable:
		logger.WarnKV(ctx, "Listing unreachable", "url", listing.URL, "status", listing.StatusCode, "error", listing.Err)
		m.record(ctx, prefixError, "Listing unreachable: %s", describe(listing.StatusCode, listing.Err))

		return ResultUnreachable, nil
	case nomads.NotFound:
		logger.InfoKV(ctx, "No cycle published yet", "url", listing.URL)
		m.record(ctx, prefixInfo, "No cycle published yet for %s", today.Compact())

		return ResultNoCycle, nil
	case nomads.Found:
	}

	hour, ok := listing.Current()
	if !ok {
		return ResultNoCycle, nil
	}

	current := cycle.NewIdentity(today, hour)
	ctx = logger.WithKV(ctx, "cycle", current.String())

	if current != state.LastCycle {
		return m.announceStart(ctx, current)
	}

	if state.IsCompleted {
		logger.Info(ctx, "Cycle already complete, awaiting next cycle")
		m.record(ctx, prefixInfo, "Cycle %s already complete, awaiting next cycle", current)

		return ResultAlreadyComplete, nil
	}

	return m.checkCompletion(ctx, state)
}

// announceStart sends the start notification and records the new cycle.
func (m *Monitor) announceStart(ctx context.Context, current cycle.Identity) (Result, error) {
	logger.Info(ctx, "New cycle detected")
	m.record(ctx, prefixAlert, "New cycle detected: %s", current)

	if err := m.sink.Send(ctx, notify.StartedMessage(current)); err != nil {
		logger.ErrorKV(ctx, "Start notification failed", "error", err)
		m.record(ctx, prefixError, "Start notification for %s failed: %v", current, err)

		return ResultStartSendFailed, nil
	}

	m.record(ctx, prefixInfo, "Start notification for %s sent", current)

	if err := m.save(ctx, cycle.Started(current)); err != nil {
		return ResultStarted, err
	}

	return ResultStarted, nil
}

// checkCompletion probes the marker file of the recorded cycle.
func (m *Monitor) checkCompletion(ctx context.Context, state *cycle.State) (Result, error) {
	current := state.LastCycle
	completion := m.completion.CheckCompletion(ctx, current)

	switch completion.Outcome {
	case nomads.Unreachable:
		logger.WarnKV(ctx, "Completion check unreachable", "url", completion.URL,
			"status", completion.StatusCode, "error", completion.Err)
		m.record(ctx, prefixError, "Completion check for %s unreachable: %s",
			current, describe(completion.StatusCode, completion.Err))

		return ResultCompletionUnreachable, nil
	case nomads.NotFound:
		logger.InfoKV(ctx, "Cycle in progress", "url", completion.URL)
		m.record(ctx, prefixCheck, "Cycle %s in progress", current)

		return ResultInProgress, nil
	case nomads.Found:
	}

	logger.Info(ctx, "Cycle complete")
	m.record(ctx, prefixAlert, "Cycle %s complete", current)

	if err := m.sink.Send(ctx, notify.CompletedMessage(current)); err != nil {
		logger.ErrorKV(ctx, "Completion notification failed", "error", err)
		m.record(ctx, prefixError, "Completion notification for %s failed: %v", current, err)

		return ResultCompleteSendFailed, nil
	}

	m.record(ctx, prefixInfo, "Completion notification for %s sent", current)

	if err := m.save(ctx, state.Completed()); err != nil {
		return ResultCompleted, err
	}

	return ResultCompleted, nil
}

// loadState reads the stored state, falling back to the default on any error.
func (m *Monitor) loadState(ctx context.Context) *cycle.State {
	state, err := m.repo.Load(ctx)

	switch {
	case err == nil && state != nil:
		return state
	case err == nil, errors.Is(err, repo.ErrNotFound):
		logger.Info(ctx, "No stored state, starting fresh")
	case errors.Is(err, repo.ErrCorrupt):
		logger.WarnKV(ctx, "Stored state is corrupt, starting fresh", "error", err)
		m.record(ctx, prefixError, "Stored state is corrupt, starting fresh: %v", err)
	default:
		logger.WarnKV(ctx, "Failed to load state, starting fresh", "error", err)
		m.record(ctx, prefixError, "Failed to load state, starting fresh: %v", err)
	}

	return cycle.Default()
}

// save persists a committed transition.
func (m *Monitor) save(ctx context.Context, state *cycle.State) error {
	if err := m.repo.Save(ctx, state); err != nil {
		logger.ErrorKV(ctx, "Failed to persist state", "error", err)
		m.record(ctx, prefixError, "Failed to persist state: %v", err)

		return fmt.Errorf("persist state: %w", err)
	}

	logger.DebugKV(ctx, "State saved", "last_cycle", state.LastCycle.String(), "is_completed", state.IsCompleted)

	return nil
}

// record appends a prefixed line to the activity log. Failures are logged only.
func (m *Monitor) record(ctx context.Context, prefix, format string, args ...any) {
	if m.activity == nil {
		return
	}

	if err := m.activity.Appendf(prefix+": "+format, args...); err != nil {
		logger.WarnKV(ctx, "Failed to write activity log", "error", err)
	}
}

// displayIdentity renders the none sentinel readably.
func displayIdentity(id cycle.Identity) string {
	if id.IsZero() {
		return "none"
	}

	return id.String()
}

// describe summarizes a failed probe.
func describe(statusCode int, err error) string {
	if err != nil {
		return err.Error()
	}

	return fmt.Sprintf("HTTP %d", statusCode)
}
