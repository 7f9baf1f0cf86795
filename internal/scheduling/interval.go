// Package scheduling contains the pure time arithmetic the appointment core is
// built on: wall-clock values, half-open intervals and the daily slot grid.
// Nothing in this package touches the database.
package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInterval is returned when an interval's start is not before its end.
var ErrInvalidInterval = errors.New("interval start must be before end")

// Clock is a wall-clock time of day expressed as seconds since midnight.
// It is date-independent; callers compare clocks only within one calendar day.
type Clock int

// ClockOf builds a Clock from hour, minute and second components.
func ClockOf(hour, minute, second int) Clock {
	return Clock(hour*3600 + minute*60 + second)
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		nums[i] = n
	}
	if nums[0] > 23 || nums[1] > 59 || nums[2] > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return ClockOf(nums[0], nums[1], nums[2]), nil
}

// String renders the clock as HH:MM:SS.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(c)/3600, int(c)%3600/60, int(c)%60)
}

// Display renders the clock as a human-readable 12-hour time, e.g. "9:30 AM".
func (c Clock) Display() string {
	hour := int(c) / 3600
	minute := int(c) % 3600 / 60
	suffix := "AM"
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		hour -= 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}

// Interval is a half-open wall-clock interval [Start, End) within one day.
type Interval struct {
	Start Clock
	End   Clock
}

// NewInterval builds an interval, rejecting start >= end.
func NewInterval(start, end Clock) (Interval, error) {
	if start >= end {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval builds an interval from two HH:MM[:SS] strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// merely touch (one ends exactly when the other starts) do not overlap, which
// is what allows back-to-back bookings.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// FirstConflict returns the first interval in busy that overlaps candidate.
func FirstConflict(busy []Interval, candidate Interval) (Interval, bool) {
	for _, b := range busy {
		if b.Overlaps(candidate) {
			return b, true
		}
	}
	return Interval{}, false
}
