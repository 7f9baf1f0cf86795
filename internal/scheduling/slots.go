package scheduling

// SlotConfig describes the clinic operating window and the slot length used to
// build the daily booking grid.
type SlotConfig struct {
	OpeningHour int
	ClosingHour int
	SlotMinutes int
}

// DefaultSlotConfig matches the clinic's standard hours: 9 to 17, 30-minute slots.
func DefaultSlotConfig() SlotConfig {
	return SlotConfig{OpeningHour: 9, ClosingHour: 17, SlotMinutes: 30}
}

// Slots returns the ascending candidate grid for one day. Slots start on
// multiples of SlotMinutes from the opening hour; a slot is emitted while its
// start is before the closing hour, so with lengths that do not divide the
// window evenly the final slot may end up to SlotMinutes-1 minutes past
// closing. With the defaults the grid is 09:00-09:30 through 16:30-17:00.
func (c SlotConfig) Slots() []Interval {
	if c.SlotMinutes <= 0 || c.OpeningHour >= c.ClosingHour {
		return nil
	}

	opening := ClockOf(c.OpeningHour, 0, 0)
	closing := ClockOf(c.ClosingHour, 0, 0)
	step := Clock(c.SlotMinutes * 60)

	var slots []Interval
	for start := opening; start < closing; start += step {
		slots = append(slots, Interval{Start: start, End: start + step})
	}
	return slots
}
