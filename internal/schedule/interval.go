// Package schedule provides the time-of-day interval model and the
// free-slot generator used by the booking engine.  Everything in this
// package is pure integer arithmetic over minutes from midnight; the
// calendar date a window belongs to travels alongside it (the space
// operates in a single timezone, so a date plus a minute offset
// identifies a moment unambiguously).
package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidInterval is returned when an interval would be empty or
// inverted (end <= start) or when a bound falls outside a day.
var ErrInvalidInterval = errors.New("invalid interval")

// minutesPerDay bounds interval endpoints; EndMinute may equal 1440
// for a window that runs to midnight.
const minutesPerDay = 24 * 60

// Interval is a half-open [Start, End) time window within one day,
// in minutes from midnight.  Half-open semantics mean back-to-back
// bookings (one ending exactly where the next begins) do not conflict.
type Interval struct {
	Start int // inclusive, minutes from midnight
	End   int // exclusive, minutes from midnight
}

// NewInterval validates bounds and returns the interval.  It fails
// with ErrInvalidInterval when end <= start or a bound is outside
// [0, 1440].
func NewInterval(start, end int) (Interval, error) {
	if start < 0 || end > minutesPerDay || end <= start {
		return Interval{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals share any minute.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Contains reports whether the given minute of day falls inside the
// interval.  The end bound is exclusive.
func (iv Interval) Contains(minute int) bool {
	return minute >= iv.Start && minute < iv.End
}

// DurationMinutes returns the interval length in minutes.
func (iv Interval) DurationMinutes() int { return iv.End - iv.Start }

// DurationHours returns the interval length in hours.
func (iv Interval) DurationHours() float64 {
	return float64(iv.End-iv.Start) / 60.0
}

// String renders the interval as "HH:MM-HH:MM" for logs and API
// responses.
func (iv Interval) String() string {
	return fmt.Sprintf("%s-%s", FormatMinute(iv.Start), FormatMinute(iv.End))
}

// FormatMinute renders a minute-of-day offset as "HH:MM".
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseMinute converts an "HH:MM" string into a minute-of-day offset.
// It accepts 24:00 as the exclusive end of day.
func ParseMinute(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	if h < 0 || m < 0 || m > 59 || h*60+m > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return h*60 + m, nil
}
