package streak

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func TestAdvanceFirstCompletion(t *testing.T) {
	today := day(2026, time.June, 10)
	res := Advance(State{}, today, 3, 3)

	if !res.Changed || !res.AllCompleted || !res.FirstAllCompletedToday {
		t.Fatalf("expected changed first completion, got %+v", res)
	}
	if res.State.CurrentStreak != 1 || res.State.MaxStreak != 1 {
		t.Errorf("streak = %d/%d, want 1/1", res.State.CurrentStreak, res.State.MaxStreak)
	}
	if res.State.LastCompletedDate == nil || !res.State.LastCompletedDate.Equal(today) {
		t.Errorf("last completed date = %v, want %v", res.State.LastCompletedDate, today)
	}
}

func TestAdvanceConsecutiveDayExtends(t *testing.T) {
	prev := State{CurrentStreak: 4, MaxStreak: 6, LastCompletedDate: dayPtr(2026, time.June, 9)}
	res := Advance(prev, day(2026, time.June, 10), 2, 2)

	if res.State.CurrentStreak != 5 {
		t.Errorf("current streak = %d, want 5", res.State.CurrentStreak)
	}
	if res.State.MaxStreak != 6 {
		t.Errorf("max streak = %d, want 6 (unchanged)", res.State.MaxStreak)
	}
	if !res.FirstAllCompletedToday {
		t.Error("expected first-completion edge")
	}
}

func TestAdvanceMaxStreakFollowsCurrent(t *testing.T) {
	prev := State{CurrentStreak: 6, MaxStreak: 6, LastCompletedDate: dayPtr(2026, time.June, 9)}
	res := Advance(prev, day(2026, time.June, 10), 2, 2)

	if res.State.CurrentStreak != 7 || res.State.MaxStreak != 7 {
		t.Errorf("streak = %d/%d, want 7/7", res.State.CurrentStreak, res.State.MaxStreak)
	}
}

func TestAdvanceGapRestartsAtOne(t *testing.T) {
	prev := State{CurrentStreak: 9, MaxStreak: 9, LastCompletedDate: dayPtr(2026, time.June, 5)}
	res := Advance(prev, day(2026, time.June, 10), 1, 1)

	if res.State.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1 after gap", res.State.CurrentStreak)
	}
	if res.State.MaxStreak != 9 {
		t.Errorf("max streak = %d, want 9 preserved", res.State.MaxStreak)
	}
	if !res.Changed {
		t.Error("expected state change")
	}
}

func TestAdvanceSecondReadSameDayIsStable(t *testing.T) {
	today := day(2026, time.June, 10)
	prev := State{CurrentStreak: 5, MaxStreak: 5, LastCompletedDate: &today}
	res := Advance(prev, today, 2, 2)

	if res.Changed {
		t.Errorf("second read the same day must not change state, got %+v", res)
	}
	if res.FirstAllCompletedToday {
		t.Error("completion edge must fire only once per day")
	}
	if res.State.CurrentStreak != 5 {
		t.Errorf("current streak = %d, want 5", res.State.CurrentStreak)
	}
}

func TestAdvanceLapseRealizedOnLaterRead(t *testing.T) {
	// Completed on the 5th, nothing since. Reading on the 6th the streak is
	// still intact (today could still be completed); on the 7th it lapses.
	prev := State{CurrentStreak: 3, MaxStreak: 3, LastCompletedDate: dayPtr(2026, time.June, 5)}

	nextDay := Advance(prev, day(2026, time.June, 6), 2, 1)
	if nextDay.Changed || nextDay.State.CurrentStreak != 3 {
		t.Errorf("day after completion: got %+v, want untouched streak 3", nextDay)
	}

	later := Advance(prev, day(2026, time.June, 7), 2, 1)
	if !later.Changed || later.State.CurrentStreak != 0 {
		t.Errorf("two days after completion: got %+v, want lapsed streak 0", later)
	}
	if later.State.MaxStreak != 3 {
		t.Errorf("max streak = %d, want 3 preserved", later.State.MaxStreak)
	}
	if later.State.LastCompletedDate == nil {
		t.Error("last completed date must survive a lapse")
	}
}

func TestAdvanceLapseIsIdempotent(t *testing.T) {
	prev := State{CurrentStreak: 0, MaxStreak: 3, LastCompletedDate: dayPtr(2026, time.June, 5)}
	res := Advance(prev, day(2026, time.June, 9), 2, 0)

	if res.Changed {
		t.Errorf("already lapsed streak must not report a change, got %+v", res)
	}
}

func TestAdvanceNoActiveHabits(t *testing.T) {
	prev := State{CurrentStreak: 4, MaxStreak: 8, LastCompletedDate: dayPtr(2026, time.June, 1)}
	res := Advance(prev, day(2026, time.June, 10), 0, 0)

	if res.Changed || res.AllCompleted || res.FirstAllCompletedToday {
		t.Errorf("no active habits must leave everything untouched, got %+v", res)
	}
	if res.State != prev {
		t.Errorf("state = %+v, want %+v", res.State, prev)
	}
}

func TestAdvancePartialCompletionToday(t *testing.T) {
	prev := State{CurrentStreak: 2, MaxStreak: 2, LastCompletedDate: dayPtr(2026, time.June, 9)}
	res := Advance(prev, day(2026, time.June, 10), 3, 2)

	if res.AllCompleted {
		t.Error("2 of 3 habits is not all completed")
	}
	if res.Changed {
		t.Errorf("yesterday's completion keeps the streak for now, got %+v", res)
	}
}

func TestAdvanceIgnoresTimeOfDay(t *testing.T) {
	prev := State{CurrentStreak: 1, MaxStreak: 1, LastCompletedDate: dayPtr(2026, time.June, 9)}
	lateEvening := time.Date(2026, time.June, 10, 23, 45, 0, 0, time.UTC)

	res := Advance(prev, lateEvening, 1, 1)
	if res.State.CurrentStreak != 2 {
		t.Errorf("current streak = %d, want 2", res.State.CurrentStreak)
	}
	want := day(2026, time.June, 10)
	if res.State.LastCompletedDate == nil || !res.State.LastCompletedDate.Equal(want) {
		t.Errorf("last completed date = %v, want %v", res.State.LastCompletedDate, want)
	}
}

func TestAdvanceMixedLocationDates(t *testing.T) {
	east := time.FixedZone("UTC+2", 2*60*60)

	// Stored date at midnight UTC, evaluation clock in another location.
	prev := State{CurrentStreak: 4, MaxStreak: 6, LastCompletedDate: dayPtr(2026, time.June, 9)}

	sameDay := Advance(prev, time.Date(2026, time.June, 9, 23, 0, 0, 0, east), 2, 2)
	if sameDay.Changed || sameDay.FirstAllCompletedToday {
		t.Errorf("same calendar day in another zone must not change state, got %+v", sameDay)
	}

	nextDay := Advance(prev, time.Date(2026, time.June, 10, 8, 0, 0, 0, east), 2, 2)
	if nextDay.State.CurrentStreak != 5 {
		t.Errorf("current streak = %d, want 5 (consecutive day)", nextDay.State.CurrentStreak)
	}
}

func TestAdvanceEvaluationBeforeLastCompleted(t *testing.T) {
	prev := State{CurrentStreak: 5, MaxStreak: 5, LastCompletedDate: dayPtr(2026, time.June, 10)}
	res := Advance(prev, day(2026, time.June, 8), 2, 2)

	if res.Changed || res.FirstAllCompletedToday {
		t.Errorf("evaluating a day before the recorded state must not rewrite it, got %+v", res)
	}
	if res.State != prev {
		t.Errorf("state = %+v, want %+v", res.State, prev)
	}
}
