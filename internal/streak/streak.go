package streak

import (
	"time"

	"habitMasteryAPI/internal/progress"
)

// State is the persisted streak bookkeeping on a user.
type State struct {
	CurrentStreak     int
	MaxStreak         int
	LastCompletedDate *time.Time
}

// Result is the outcome of one evaluation.
type Result struct {
	State        State
	Changed      bool
	AllCompleted bool
	// FirstAllCompletedToday is true the first time today that every active
	// habit is observed complete; the caller emits the daily congratulation
	// on this edge.
	FirstAllCompletedToday bool
}

// Advance evaluates the streak for one read of the user's home view.
// activeHabits is the number of non-completed habits and completedToday how
// many of them have a ledger entry for today. Permanently completed habits
// are excluded by the caller, so finishing a habit never breaks a streak.
//
// The function is deterministic and performs no I/O; callers persist the
// returned state only when Changed is set.
func Advance(prev State, today time.Time, activeHabits, completedToday int) Result {
	res := Result{State: prev}

	if activeHabits == 0 {
		return res
	}

	today = progress.DateOf(today)
	res.AllCompleted = completedToday >= activeHabits

	// diff is in whole calendar days; locations of the stored date and the
	// evaluation time never skew it.
	var diff int
	hasLast := prev.LastCompletedDate != nil
	if hasLast {
		diff = progress.DaysBetween(*prev.LastCompletedDate, today)
		// Evaluating a day earlier than the recorded state must never
		// rewrite it.
		if diff < 0 {
			return res
		}
	}
	lastIsToday := hasLast && diff == 0

	if res.AllCompleted && !lastIsToday {
		switch {
		case !hasLast:
			res.State.CurrentStreak = 1
		case diff == 1:
			res.State.CurrentStreak = prev.CurrentStreak + 1
		default:
			// Gap of more than one day: the streak restarts at one.
			res.State.CurrentStreak = 1
		}
		if res.State.CurrentStreak > res.State.MaxStreak {
			res.State.MaxStreak = res.State.CurrentStreak
		}
		res.State.LastCompletedDate = &today
		res.Changed = true
		res.FirstAllCompletedToday = true
		return res
	}

	// A missed day is only realized on a later evaluation: the streak lapses
	// once a full day has passed without all habits completed.
	if !res.AllCompleted && !lastIsToday && hasLast && diff > 1 && prev.CurrentStreak != 0 {
		res.State.CurrentStreak = 0
		res.Changed = true
	}

	return res
}
