package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"habitMasteryAPI/internal/congratulation"
	"habitMasteryAPI/internal/habit"
	"habitMasteryAPI/internal/settings"
)

func TestDashboardStreakAdvancesOnceADay(t *testing.T) {
	db := setupTestDB(t)
	congrats := NewCongratulationService(db)
	users := NewUserService(db, congrats)
	habits := NewHabitService(db, congrats)
	ctx := context.Background()

	clerkID := createTestUser(t, db)

	h1 := createTestHabit(t, habits, clerkID, 30)
	h2 := createTestHabit(t, habits, clerkID, 30)

	today := time.Now()

	// Nothing tracked yet: no streak movement.
	before, err := users.GetDashboard(ctx, clerkID, today)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if before.CurrentStreak != 0 {
		t.Errorf("current streak = %d, want 0", before.CurrentStreak)
	}
	if before.ProgressPercent != 0 {
		t.Errorf("progress = %d%%, want 0%%", before.ProgressPercent)
	}

	if _, err := habits.ToggleTracking(ctx, clerkID, h1.ID, today); err != nil {
		t.Fatalf("toggle h1 failed: %v", err)
	}

	half, err := users.GetDashboard(ctx, clerkID, today)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if half.CurrentStreak != 0 {
		t.Errorf("one of two habits done, streak = %d, want 0", half.CurrentStreak)
	}
	if half.ProgressPercent != 50 {
		t.Errorf("progress = %d%%, want 50%%", half.ProgressPercent)
	}

	if _, err := habits.ToggleTracking(ctx, clerkID, h2.ID, today); err != nil {
		t.Fatalf("toggle h2 failed: %v", err)
	}

	full, err := users.GetDashboard(ctx, clerkID, today)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if full.CurrentStreak != 1 || full.MaxStreak != 1 {
		t.Errorf("streak = %d/%d, want 1/1", full.CurrentStreak, full.MaxStreak)
	}
	if full.ProgressPercent != 100 {
		t.Errorf("progress = %d%%, want 100%%", full.ProgressPercent)
	}

	allDone := 0
	for _, c := range full.Congratulations {
		if c.Type == congratulation.TypeAllHabitsCompleted {
			allDone++
		}
	}
	if allDone != 1 {
		t.Errorf("all-habits congratulations = %d, want 1", allDone)
	}

	// A second read the same day must not bump the streak or emit again.
	again, err := users.GetDashboard(ctx, clerkID, today)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if again.CurrentStreak != 1 {
		t.Errorf("streak after reread = %d, want 1", again.CurrentStreak)
	}
	allDone = 0
	for _, c := range again.Congratulations {
		if c.Type == congratulation.TypeAllHabitsCompleted {
			allDone++
		}
	}
	if allDone != 1 {
		t.Errorf("all-habits congratulations after reread = %d, want 1", allDone)
	}
}

func TestDashboardRejectsFutureDate(t *testing.T) {
	db := setupTestDB(t)
	congrats := NewCongratulationService(db)
	users := NewUserService(db, congrats)
	ctx := context.Background()

	clerkID := createTestUser(t, db)

	_, err := users.GetDashboard(ctx, clerkID, time.Now().AddDate(0, 0, 2))
	if !errors.Is(err, ErrFutureDate) {
		t.Errorf("future dashboard date err = %v, want ErrFutureDate", err)
	}

	// Today itself is always allowed.
	if _, err := users.GetDashboard(ctx, clerkID, time.Now()); err != nil {
		t.Fatalf("dashboard for today failed: %v", err)
	}
}

func TestDashboardHabitStatusFields(t *testing.T) {
	db := setupTestDB(t)
	congrats := NewCongratulationService(db)
	users := NewUserService(db, congrats)
	habits := NewHabitService(db, congrats)
	ctx := context.Background()

	clerkID := createTestUser(t, db)
	h := createTestHabit(t, habits, clerkID, 30)

	if _, err := habits.ToggleTracking(ctx, clerkID, h.ID, time.Now().AddDate(0, 0, -1)); err != nil {
		t.Fatalf("toggle yesterday failed: %v", err)
	}
	if _, err := habits.ToggleTracking(ctx, clerkID, h.ID, time.Now()); err != nil {
		t.Fatalf("toggle today failed: %v", err)
	}

	dash, err := users.GetDashboard(ctx, clerkID, time.Now())
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}

	var found *habit.HabitWithStatus
	for _, hw := range dash.Habits {
		if hw.ID == h.ID {
			found = hw
		}
	}
	if found == nil {
		t.Fatal("habit missing from dashboard")
	}
	if !found.CompletedToday {
		t.Error("habit should be marked completed today")
	}
	if found.TrackedDays != 2 {
		t.Errorf("tracked days = %d, want 2", found.TrackedDays)
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	congrats := NewCongratulationService(db)
	users := NewUserService(db, congrats)
	ctx := context.Background()

	clerkID := createTestUser(t, db)

	defaults, err := users.GetSettings(ctx, clerkID)
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if defaults.Theme != "system" {
		t.Errorf("default theme = %q, want system", defaults.Theme)
	}
	if defaults.DefaultMasteryGoal != 100 {
		t.Errorf("default goal = %d, want 100", defaults.DefaultMasteryGoal)
	}
	if defaults.DefaultPeriod != 30 {
		t.Errorf("default period = %d, want 30", defaults.DefaultPeriod)
	}

	theme := "dark"
	goal := 80
	updated, err := users.UpdateSettings(ctx, clerkID, &settings.UpdateSettingsRequest{
		Theme:              &theme,
		DefaultMasteryGoal: &goal,
	})
	if err != nil {
		t.Fatalf("update settings failed: %v", err)
	}
	if updated.Theme != "dark" || updated.DefaultMasteryGoal != 80 {
		t.Errorf("settings not applied: %+v", updated)
	}
	if updated.DefaultPeriod != 30 {
		t.Errorf("untouched field changed: period = %d, want 30", updated.DefaultPeriod)
	}
}

func TestUserStats(t *testing.T) {
	db := setupTestDB(t)
	congrats := NewCongratulationService(db)
	users := NewUserService(db, congrats)
	habits := NewHabitService(db, congrats)
	ctx := context.Background()

	clerkID := createTestUser(t, db)

	h1 := createTestHabit(t, habits, clerkID, 30)
	h2 := createTestHabit(t, habits, clerkID, 30)

	if _, err := habits.ToggleTracking(ctx, clerkID, h1.ID, time.Now()); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if _, err := habits.CompleteHabit(ctx, clerkID, h2.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	st, err := users.GetUserStats(ctx, clerkID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if st.ActiveHabits != 1 {
		t.Errorf("active habits = %d, want 1", st.ActiveHabits)
	}
	if st.CompletedHabits != 1 {
		t.Errorf("completed habits = %d, want 1", st.CompletedHabits)
	}
	if st.TotalTrackings != 1 {
		t.Errorf("total trackings = %d, want 1", st.TotalTrackings)
	}
	if !st.AllDoneToday {
		t.Error("the only active habit is tracked today, AllDoneToday should be true")
	}
}
