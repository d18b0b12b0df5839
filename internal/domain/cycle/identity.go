package cycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// compactDateLayout is the date layout used in dataset directory names.
	compactDateLayout = "20060102"
	// identitySeparator joins date and hour in the persisted identity.
	identitySeparator = "_"
)

// ErrInvalidIdentity is returned when a persisted identity cannot be parsed.
var ErrInvalidIdentity = errors.New("invalid cycle identity")

// Date is a calendar day without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) Date {
	year, month, day := t.UTC().Date()

	return Date{
		Year:  year,
		Month: month,
		Day:   day,
	}
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compact renders the date as YYYYMMDD, the form used in dataset paths.
func (d Date) Compact() string {
	return d.Time().Format(compactDateLayout)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format(time.DateOnly)
}

// Identity names one run of the dataset.
// The zero Identity means that no cycle is known.
type Identity struct {
	// Date is the UTC day the cycle belongs to.
	Date Date
	// Hour is the publication hour of the cycle.
	Hour Hour
}

// NewIdentity builds an identity for the given day and hour.
func NewIdentity(date Date, hour Hour) Identity {
	return Identity{
		Date: date,
		Hour: hour,
	}
}

// IsZero reports whether the identity is the "no cycle" sentinel.
func (id Identity) IsZero() bool {
	return id.Date.IsZero()
}

// String renders the identity as YYYYMMDD_HH, or an empty string for the
// zero identity.
func (id Identity) String() string {
	if id.IsZero() {
		return ""
	}

	return id.Date.Compact() + identitySeparator + id.Hour.Label()
}

// ParseIdentity is the inverse of Identity.String.
// An empty string yields the zero identity.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identity{}, nil
	}

	datePart, hourPart, ok := strings.Cut(s, identitySeparator)
	if !ok {
		return Identity{}, fmt.Errorf("%q: %w", s, ErrInvalidIdentity)
	}

	parsedDate, err := time.Parse(compactDateLayout, datePart)
	if err != nil {
		return Identity{}, fmt.Errorf("%q: %w", s, ErrInvalidIdentity)
	}

	hour, err := ParseHour(hourPart)
	if err != nil {
		return Identity{}, fmt.Errorf("%q: %w", s, ErrInvalidIdentity)
	}

	return NewIdentity(DateOf(parsedDate), hour), nil
}
