package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickavail/backend/internal/domain"
)

func TestQuickTimeSlots_Catalog(t *testing.T) {
	slots := domain.QuickTimeSlots()
	require.Len(t, slots, 3)
	assert.Equal(t, domain.QuickSlotMorning, slots[0].ID)
	assert.Equal(t, domain.QuickSlotAfternoon, slots[1].ID)
	assert.Equal(t, domain.QuickSlotEvening, slots[2].ID)

	assert.InDelta(t, 3.0, domain.QuickSlotMorning.Duration(), 1e-9)
	assert.InDelta(t, 5.0, domain.QuickSlotAfternoon.Duration(), 1e-9)
	assert.InDelta(t, 3.0, domain.QuickSlotEvening.Duration(), 1e-9)
	assert.Zero(t, domain.QuickSlotID("night").Duration())

	// Callers get a copy.
	slots[0].Label = "changed"
	got, ok := domain.LookupQuickSlot(domain.QuickSlotMorning)
	require.True(t, ok)
	assert.Equal(t, "Morning", got.Label)
}

func TestParseClock(t *testing.T) {
	for _, ok := range []string{"00:00", "09:05", "23:59"} {
		_, err := domain.ParseClock(ok)
		assert.NoError(t, err, "input %q", ok)
	}
	for _, bad := range []string{"24:00", "9:00", "12:60", "ab:cd", "1200", "", "+9:00", "09:+5", "-0:30", " 9:00"} {
		_, err := domain.ParseClock(bad)
		assert.ErrorIs(t, err, domain.ErrValidation, "input %q", bad)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[string]string{
		"09:00": "9:00 AM",
		"12:00": "12:00 PM",
		"00:30": "12:30 AM",
		"17:45": "5:45 PM",
		"bad":   "bad",
	}
	for in, want := range cases {
		assert.Equal(t, want, domain.FormatClock(in), "input %q", in)
	}
}

func TestSpanHours(t *testing.T) {
	h, err := domain.SpanHours("09:00", "17:00")
	require.NoError(t, err)
	assert.InDelta(t, 8.0, h, 1e-9)

	h, err = domain.SpanHours("09:00", "09:30")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, h, 1e-9)

	_, err = domain.SpanHours("9", "10:00")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
