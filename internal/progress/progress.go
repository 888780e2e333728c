package progress

import "time"

// DefaultPeriodDays is the reference window used when a habit has no target
// date: tracking every day for 30 days reaches 100%.
const DefaultPeriodDays = 30

// Recompute derives the mastery progress percentage from the full ledger.
// createdAt and targetDate are calendar dates; trackedDays is the number of
// ledger entries for the habit; prev is the currently stored percentage.
//
// With a target date the denominator is the number of days between creation
// and target. A non-positive denominator (target on or before creation)
// leaves the stored percentage unchanged. Without a target date the
// denominator is DefaultPeriodDays. The result is always clamped to [0,100].
func Recompute(createdAt time.Time, targetDate *time.Time, trackedDays int, prev int) int {
	totalDays := DefaultPeriodDays
	if targetDate != nil {
		totalDays = DaysBetween(createdAt, *targetDate)
		if totalDays <= 0 {
			return clamp(prev)
		}
	}
	return clamp(trackedDays * 100 / totalDays)
}

// ReachesGoal reports whether a habit that is not yet completed should
// transition to completed. The transition is one-way; callers must never
// clear is_completed when a later unmark drops the percentage again.
func ReachesGoal(masteryProgress, masteryGoal int) bool {
	return masteryProgress >= masteryGoal
}

// DaysBetween counts whole calendar days from a to b. Only the calendar
// components matter; time of day, location and DST transitions are ignored,
// so a DATE column decoded at midnight UTC compares correctly against a
// local time.Now().
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
