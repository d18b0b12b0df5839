package cycle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Hour is one of the fixed publication hours of the dataset.
type Hour uint8

// Publication hours in UTC.
const (
	Hour00 Hour = 0
	Hour06 Hour = 6
	Hour12 Hour = 12
	Hour18 Hour = 18
)

// Priority lists the hours from the most recent to the oldest.
// It is used to break ties when several cycles are visible at once.
//
//nolint:gochecknoglobals // Fixed lookup order, never mutated.
var Priority = []Hour{Hour18, Hour12, Hour06, Hour00}

// ErrInvalidHour is returned when a value is not a publication hour.
var ErrInvalidHour = errors.New("invalid cycle hour")

// Valid reports whether h is one of the publication hours.
func (h Hour) Valid() bool {
	switch h {
	case Hour00, Hour06, Hour12, Hour18:
		return true
	default:
		return false
	}
}

// Label renders the hour as two digits, e.g. "06".
func (h Hour) Label() string {
	return fmt.Sprintf("%02d", uint8(h))
}

// String implements fmt.Stringer.
func (h Hour) String() string {
	return h.Label() + "z"
}

// ParseHour converts "0", "00", "6", "06", "12" or "18" into an Hour.
func ParseHour(s string) (Hour, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidHour)
	}

	h := Hour(value)
	if !h.Valid() {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidHour)
	}

	return h, nil
}

// Latest returns the most recent hour found in hours according to Priority.
// The second result is false when hours holds no publication hour.
func Latest(hours []Hour) (Hour, bool) {
	for _, candidate := range Priority {
		for _, h := range hours {
			if h == candidate {
				return candidate, true
			}
		}
	}

	return 0, false
}
