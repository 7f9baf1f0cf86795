package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "09:00", want: ClockOf(9, 0, 0)},
		{in: "09:30:00", want: ClockOf(9, 30, 0)},
		{in: "16:45:30", want: ClockOf(16, 45, 30)},
		{in: "00:00", want: 0},
		{in: "23:59:59", want: ClockOf(23, 59, 59)},
		{in: "24:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "0900", wantErr: true},
		{in: "nine:thirty", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseClock(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseClock(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseClock(%q)", tt.in)
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "09:05:00", ClockOf(9, 5, 0).String())
	assert.Equal(t, "16:30:00", ClockOf(16, 30, 0).String())
}

func TestClockDisplay(t *testing.T) {
	assert.Equal(t, "9:00 AM", ClockOf(9, 0, 0).Display())
	assert.Equal(t, "12:30 PM", ClockOf(12, 30, 0).Display())
	assert.Equal(t, "4:45 PM", ClockOf(16, 45, 0).Display())
	assert.Equal(t, "12:15 AM", ClockOf(0, 15, 0).Display())
}

func TestNewIntervalRejectsInvertedBounds(t *testing.T) {
	_, err := NewInterval(ClockOf(10, 0, 0), ClockOf(10, 0, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(ClockOf(11, 0, 0), ClockOf(10, 0, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestOverlapsHalfOpenSemantics(t *testing.T) {
	mustInterval := func(start, end string) Interval {
		iv, err := ParseInterval(start, end)
		require.NoError(t, err)
		return iv
	}

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "touching boundary does not overlap", a: mustInterval("09:00", "09:30"), b: mustInterval("09:30", "10:00"), want: false},
		{name: "partial overlap", a: mustInterval("09:00", "09:30"), b: mustInterval("09:15", "09:45"), want: true},
		{name: "containment", a: mustInterval("09:00", "11:00"), b: mustInterval("09:30", "10:00"), want: true},
		{name: "identical", a: mustInterval("09:00", "09:30"), b: mustInterval("09:00", "09:30"), want: true},
		{name: "disjoint", a: mustInterval("09:00", "09:30"), b: mustInterval("14:00", "14:30"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Overlap must be symmetric.
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestFirstConflict(t *testing.T) {
	busy := []Interval{
		{Start: ClockOf(10, 0, 0), End: ClockOf(10, 30, 0)},
		{Start: ClockOf(14, 0, 0), End: ClockOf(15, 0, 0)},
	}

	hit, ok := FirstConflict(busy, Interval{Start: ClockOf(14, 30, 0), End: ClockOf(15, 30, 0)})
	require.True(t, ok)
	assert.Equal(t, busy[1], hit)

	_, ok = FirstConflict(busy, Interval{Start: ClockOf(10, 30, 0), End: ClockOf(11, 0, 0)})
	assert.False(t, ok, "back-to-back interval must not conflict")

	_, ok = FirstConflict(nil, Interval{Start: ClockOf(9, 0, 0), End: ClockOf(9, 30, 0)})
	assert.False(t, ok)
}
