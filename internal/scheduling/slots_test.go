package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSlotGrid(t *testing.T) {
	slots := DefaultSlotConfig().Slots()

	require.Len(t, slots, 16)
	assert.Equal(t, "09:00:00", slots[0].Start.String())
	assert.Equal(t, "09:30:00", slots[0].End.String())
	assert.Equal(t, "16:30:00", slots[15].Start.String())
	assert.Equal(t, "17:00:00", slots[15].End.String())

	// Ascending, duplicate-free, back-to-back.
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, slots[i-1].End, slots[i].Start)
		assert.Less(t, slots[i-1].Start, slots[i].Start)
	}
}

func TestSlotGridDeterminism(t *testing.T) {
	cfg := SlotConfig{OpeningHour: 8, ClosingHour: 19, SlotMinutes: 15}
	assert.Equal(t, cfg.Slots(), cfg.Slots())
}

func TestSlotGridCarriesMinutesAcrossHour(t *testing.T) {
	cfg := SlotConfig{OpeningHour: 9, ClosingHour: 11, SlotMinutes: 45}
	slots := cfg.Slots()

	// 09:00, 09:45, 10:30 all start before closing; 10:30 ends 11:15, within
	// the documented at-most-length-minus-one spill past closing.
	require.Len(t, slots, 3)
	assert.Equal(t, "09:45:00", slots[0].End.String())
	assert.Equal(t, "10:30:00", slots[2].Start.String())
	assert.Equal(t, "11:15:00", slots[2].End.String())
}

func TestSlotGridDegenerateConfigs(t *testing.T) {
	assert.Nil(t, SlotConfig{OpeningHour: 17, ClosingHour: 9, SlotMinutes: 30}.Slots())
	assert.Nil(t, SlotConfig{OpeningHour: 9, ClosingHour: 17, SlotMinutes: 0}.Slots())
}
