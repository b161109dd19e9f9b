package doctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hours(start, end string) DaySchedule {
	return DaySchedule{Start: &start, End: &end, Available: true}
}

func TestWindowFor(t *testing.T) {
	wh := DefaultWorkingHours()
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	w, reason := wh.WindowFor(monday.Add(13 * time.Hour))
	require.Empty(t, reason)
	assert.Equal(t, monday.Add(9*time.Hour), w.Start)
	assert.Equal(t, monday.Add(17*time.Hour), w.End)
	assert.Equal(t, "09:00 - 17:00", w.Label)

	_, reason = wh.WindowFor(monday.AddDate(0, 0, 5))
	assert.Equal(t, "doctor not available on this day", reason)

	delete(wh, "tuesday")
	_, reason = wh.WindowFor(monday.AddDate(0, 0, 1))
	assert.Equal(t, "doctor does not have working hours set for this day", reason)
}

func TestWindowFor_UsesDayLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	wh := WorkingHours{"monday": hours("08:30", "12:00")}

	w, reason := wh.WindowFor(time.Date(2025, 1, 6, 23, 0, 0, 0, loc))
	require.Empty(t, reason)
	assert.Equal(t, time.Date(2025, 1, 6, 8, 30, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2025, 1, 6, 12, 0, 0, 0, loc), w.End)
}

func TestWindowFor_Misconfigured(t *testing.T) {
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	for name, s := range map[string]DaySchedule{
		"garbage start": hours("nine", "17:00"),
		"inverted":      hours("17:00", "09:00"),
	} {
		t.Run(name, func(t *testing.T) {
			_, reason := WorkingHours{"monday": s}.WindowFor(monday)
			assert.Equal(t, "doctor working hours are misconfigured for this day", reason)
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	w := Window{Start: day.Add(9 * time.Hour), End: day.Add(17 * time.Hour)}

	assert.True(t, w.Contains(day.Add(9*time.Hour), day.Add(17*time.Hour)), "bounds are inclusive")
	assert.False(t, w.Contains(day.Add(8*time.Hour+59*time.Minute), day.Add(10*time.Hour)))
	assert.False(t, w.Contains(day.Add(16*time.Hour), day.Add(17*time.Hour+time.Minute)))
}

func TestWorkingHours_Validate(t *testing.T) {
	require.NoError(t, DefaultWorkingHours().Validate())

	tests := map[string]WorkingHours{
		"unknown day": {"funday": hours("09:00", "17:00")},
		"missing end": {"monday": {Start: new(string), Available: true}},
		"bad clock":   {"monday": hours("9am", "17:00")},
		"start = end": {"monday": hours("09:00", "09:00")},
		"start > end": {"monday": hours("18:00", "09:00")},
	}
	for name, wh := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, wh.Validate(), ErrInvalidWorkingHours)
		})
	}

	closed := WorkingHours{"sunday": {Available: false}}
	assert.NoError(t, closed.Validate(), "closed days need no bounds")
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "monday", DayKey(time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "sunday", DayKey(time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)))
}
