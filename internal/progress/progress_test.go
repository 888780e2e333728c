package progress

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecomputeWithTargetDate(t *testing.T) {
	created := date(2026, time.January, 1)
	target := date(2026, time.January, 11) // 10 day window

	tests := []struct {
		name        string
		trackedDays int
		prev        int
		want        int
	}{
		{"empty ledger", 0, 50, 0},
		{"half tracked", 5, 0, 50},
		{"fully tracked", 10, 0, 100},
		{"over tracked clamps", 15, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recompute(created, &target, tt.trackedDays, tt.prev)
			if got != tt.want {
				t.Errorf("Recompute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecomputeWithoutTargetDate(t *testing.T) {
	created := date(2026, time.March, 1)

	if got := Recompute(created, nil, 15, 0); got != 50 {
		t.Errorf("Recompute() = %d, want 50", got)
	}
	if got := Recompute(created, nil, 30, 0); got != 100 {
		t.Errorf("Recompute() = %d, want 100", got)
	}
	if got := Recompute(created, nil, 45, 0); got != 100 {
		t.Errorf("Recompute() = %d, want 100 (clamped)", got)
	}
}

func TestRecomputeDegenerateWindowKeepsStoredValue(t *testing.T) {
	created := date(2026, time.May, 10)

	sameDay := created
	if got := Recompute(created, &sameDay, 7, 42); got != 42 {
		t.Errorf("target on creation day: Recompute() = %d, want 42", got)
	}

	past := date(2026, time.May, 1)
	if got := Recompute(created, &past, 7, 42); got != 42 {
		t.Errorf("target before creation: Recompute() = %d, want 42", got)
	}

	// The stored value is still clamped on the way out.
	if got := Recompute(created, &sameDay, 7, 150); got != 100 {
		t.Errorf("out-of-range stored value: Recompute() = %d, want 100", got)
	}
}

func TestRecomputeIgnoresTimeOfDay(t *testing.T) {
	created := time.Date(2026, time.January, 1, 23, 59, 0, 0, time.UTC)
	target := time.Date(2026, time.January, 11, 0, 1, 0, 0, time.UTC)

	if got := Recompute(created, &target, 5, 0); got != 50 {
		t.Errorf("Recompute() = %d, want 50", got)
	}
}

func TestReachesGoal(t *testing.T) {
	if !ReachesGoal(80, 80) {
		t.Error("progress equal to goal should reach it")
	}
	if !ReachesGoal(81, 80) {
		t.Error("progress above goal should reach it")
	}
	if ReachesGoal(79, 80) {
		t.Error("progress below goal should not reach it")
	}
}

func TestDaysBetween(t *testing.T) {
	a := date(2026, time.February, 27)
	b := date(2026, time.March, 2)

	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("DaysBetween() = %d, want 3", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Errorf("DaysBetween() reversed = %d, want -3", got)
	}

	// Leap year February.
	if got := DaysBetween(date(2024, time.February, 27), date(2024, time.March, 2)); got != 4 {
		t.Errorf("DaysBetween() across leap day = %d, want 4", got)
	}
	if got := DaysBetween(a, a); got != 0 {
		t.Errorf("DaysBetween() same day = %d, want 0", got)
	}
}

func TestDaysBetweenMixedLocations(t *testing.T) {
	east := time.FixedZone("UTC+2", 2*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)

	// Date columns come back at midnight UTC while the server clock runs in
	// its own location; only the calendar dates may matter.
	stored := date(2026, time.June, 9)
	localNow := time.Date(2026, time.June, 10, 8, 30, 0, 0, east)
	if got := DaysBetween(stored, localNow); got != 1 {
		t.Errorf("DaysBetween(stored, local now) = %d, want 1", got)
	}

	sameDayEast := time.Date(2026, time.June, 9, 23, 0, 0, 0, east)
	if got := DaysBetween(stored, sameDayEast); got != 0 {
		t.Errorf("DaysBetween(same calendar day) = %d, want 0", got)
	}

	created := time.Date(2026, time.June, 1, 14, 0, 0, 0, west)
	target := date(2026, time.June, 11)
	if got := DaysBetween(created, target); got != 10 {
		t.Errorf("DaysBetween(west created, target) = %d, want 10", got)
	}
}

func TestRecomputeMixedLocationWindow(t *testing.T) {
	west := time.FixedZone("UTC-5", -5*60*60)

	created := time.Date(2026, time.January, 1, 18, 0, 0, 0, west)
	target := date(2026, time.January, 11) // 10 day window

	if got := Recompute(created, &target, 5, 0); got != 50 {
		t.Errorf("Recompute() = %d, want 50", got)
	}
}
