package nomads

import "github.com/oshokin/gfs-monitor/internal/domain/cycle"

// Outcome classifies a probe.
type Outcome int

// Probe outcomes.
const (
	// Unreachable means the request failed or the server answered with an error.
	Unreachable Outcome = iota
	// NotFound means the server answered but nothing is published yet.
	NotFound
	// Found means the probed files are present.
	Found
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Unreachable:
		return "unreachable"
	case NotFound:
		return "not_found"
	case Found:
		return "found"
	default:
		return "unknown"
	}
}

// Listing is the result of a day directory listing.
type Listing struct {
	// Outcome is Found when at least one cycle has started.
	Outcome Outcome
	// URL is the requested listing.
	URL string
	// StatusCode is the HTTP status, zero on transport failure.
	StatusCode int
	// Hours lists the started cycles in priority order.
	Hours []cycle.Hour
	// Err describes why the server was unreachable.
	Err error
}

// Current returns the most recent started cycle.
func (l Listing) Current() (cycle.Hour, bool) {
	if l.Outcome != Found {
		return 0, false
	}

	return cycle.Latest(l.Hours)
}

// Completion is the result of a marker file check.
type Completion struct {
	// Outcome is Found when the marker file exists.
	Outcome Outcome
	// URL is the checked marker file.
	URL string
	// StatusCode is the HTTP status, zero on transport failure.
	StatusCode int
	// Err describes why the server was unreachable.
	Err error
}
