package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatus_SameDayWindow(t *testing.T) {
	today := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return today.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name string
		now  time.Time
		want EventStatus
	}{
		{"before_start", at(8), StatusUpcoming},
		{"inside_window", at(10), StatusOngoing},
		{"exactly_at_start", at(9), StatusOngoing},
		{"exactly_at_end", at(17), StatusOngoing},
		{"after_end", at(18), StatusCompleted},
		{"previous_day", at(-5), StatusUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(tt.now, StatusUpcoming, today, today, "9:00 AM - 5:00 PM")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveStatus_MultiDayCrossingMidnight(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	now := time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusOngoing, ResolveStatus(now, StatusUpcoming, start, end, "10:00 PM - 2:00 AM"))

	now = time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusCompleted, ResolveStatus(now, StatusOngoing, start, end, "10:00 PM - 2:00 AM"))

	now = time.Date(2025, 3, 1, 21, 59, 0, 0, time.UTC)
	assert.Equal(t, StatusUpcoming, ResolveStatus(now, StatusUpcoming, start, end, "10:00 PM - 2:00 AM"))
}

func TestResolveStatus_ZeroEndDateDefaultsToStart(t *testing.T) {
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	now := day.Add(20 * time.Hour)
	assert.Equal(t, StatusCompleted, ResolveStatus(now, StatusOngoing, day, time.Time{}, "9:00 AM - 5:00 PM"))
}

func TestResolveStatus_DateOnlyFallback(t *testing.T) {
	start := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	const garbage = "all day, roughly"

	tests := []struct {
		name string
		now  time.Time
		want EventStatus
	}{
		{"day_before", start.Add(-time.Nanosecond), StatusUpcoming},
		{"start_of_first_day", start, StatusOngoing},
		{"late_on_last_day", time.Date(2025, 6, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC), StatusOngoing},
		{"after_last_day", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(tt.now, StatusUpcoming, start, end, garbage))
		})
	}
}

func TestResolveStatus_CancelledIsAbsorbing(t *testing.T) {
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{-24, 8, 10, 18, 72} {
		now := day.Add(time.Duration(h) * time.Hour)
		assert.Equal(t, StatusCancelled, ResolveStatus(now, StatusCancelled, day, day, "9:00 AM - 5:00 PM"))
	}
}

func TestResolveStatus_CompletedCanReopenWhenScheduleMoves(t *testing.T) {
	// status is a pure function of the schedule, not a one-way latch
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	now := day.Add(-time.Hour)
	assert.Equal(t, StatusUpcoming, ResolveStatus(now, StatusCompleted, day, day, "9:00 AM - 5:00 PM"))
}
