package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"habitMasteryAPI/internal/congratulation"
)

func resolveUserID(t *testing.T, svc *CongratulationService, clerkID string) uuid.UUID {
	t.Helper()
	userID, err := svc.getUserID(context.Background(), clerkID)
	if err != nil {
		t.Fatalf("failed to resolve user: %v", err)
	}
	return userID
}

func TestEmitAllHabitsCompletedDedupedPerDay(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCongratulationService(db)
	ctx := context.Background()

	clerkID := createTestUser(t, db)
	userID := resolveUserID(t, svc, clerkID)

	first, err := svc.Emit(ctx, userID, congratulation.TypeAllHabitsCompleted, "all done")
	if err != nil {
		t.Fatalf("first emit failed: %v", err)
	}
	if first == nil {
		t.Fatal("first emit of the day must create a row")
	}

	second, err := svc.Emit(ctx, userID, congratulation.TypeAllHabitsCompleted, "all done again")
	if err != nil {
		t.Fatalf("second emit failed: %v", err)
	}
	if second != nil {
		t.Error("second emit the same day must be suppressed")
	}

	count, err := svc.GetUnreadCount(ctx, clerkID)
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("unread count = %d, want 1", count)
	}
}

func TestEmitDedupWindowIsTheEvaluationDay(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCongratulationService(db)
	ctx := context.Background()

	clerkID := createTestUser(t, db)
	userID := resolveUserID(t, svc, clerkID)

	// A row from yesterday must not suppress today's emission.
	_, err := db.Exec(ctx, `
		INSERT INTO congratulations (id, user_id, message, type, is_read, created_at)
		VALUES ($1, $2, 'all done', $3, false, NOW() - interval '1 day')
	`, uuid.New(), userID, congratulation.TypeAllHabitsCompleted)
	if err != nil {
		t.Fatalf("failed to seed yesterday's congratulation: %v", err)
	}

	c, err := svc.Emit(ctx, userID, congratulation.TypeAllHabitsCompleted, "all done")
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if c == nil {
		t.Fatal("yesterday's row must not suppress today's emission")
	}

	again, err := svc.Emit(ctx, userID, congratulation.TypeAllHabitsCompleted, "all done")
	if err != nil {
		t.Fatalf("second emit failed: %v", err)
	}
	if again != nil {
		t.Error("second emit the same day must be suppressed")
	}
}

func TestEmitOtherTypesNotDeduped(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCongratulationService(db)
	ctx := context.Background()

	clerkID := createTestUser(t, db)
	userID := resolveUserID(t, svc, clerkID)

	for i := 0; i < 2; i++ {
		c, err := svc.Emit(ctx, userID, congratulation.TypeHabitCompleted, "nice work")
		if err != nil {
			t.Fatalf("emit %d failed: %v", i, err)
		}
		if c == nil {
			t.Fatalf("emit %d suppressed, habit_completed must never be deduplicated", i)
		}
	}

	count, err := svc.GetUnreadCount(ctx, clerkID)
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("unread count = %d, want 2", count)
	}
}

func TestMarkAsReadOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCongratulationService(db)
	ctx := context.Background()

	ownerClerkID := createTestUser(t, db)
	otherClerkID := createTestUser(t, db)
	ownerID := resolveUserID(t, svc, ownerClerkID)

	c, err := svc.Emit(ctx, ownerID, congratulation.TypeMasteryGoalAchieved, "goal reached")
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	// Another user marking this row gets not-found, so existence does not
	// leak across accounts.
	if err := svc.MarkAsRead(ctx, c.ID, otherClerkID); !errors.Is(err, ErrCongratulationNotFound) {
		t.Errorf("cross-user mark err = %v, want ErrCongratulationNotFound", err)
	}

	if err := svc.MarkAsRead(ctx, c.ID, ownerClerkID); err != nil {
		t.Fatalf("owner mark failed: %v", err)
	}

	count, err := svc.GetUnreadCount(ctx, ownerClerkID)
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("unread count = %d, want 0 after mark", count)
	}

	if err := svc.MarkAsRead(ctx, uuid.New(), ownerClerkID); !errors.Is(err, ErrCongratulationNotFound) {
		t.Errorf("unknown id err = %v, want ErrCongratulationNotFound", err)
	}
}

func TestMarkAllAsRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCongratulationService(db)
	ctx := context.Background()

	clerkID := createTestUser(t, db)
	userID := resolveUserID(t, svc, clerkID)

	for i := 0; i < 3; i++ {
		if _, err := svc.Emit(ctx, userID, congratulation.TypeHabitCompleted, "done"); err != nil {
			t.Fatalf("emit failed: %v", err)
		}
	}

	if err := svc.MarkAllAsRead(ctx, clerkID); err != nil {
		t.Fatalf("mark all failed: %v", err)
	}

	count, err := svc.GetUnreadCount(ctx, clerkID)
	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("unread count = %d, want 0", count)
	}

	all, err := svc.GetCongratulations(ctx, clerkID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("congratulations = %d, want 3", len(all))
	}
	for _, c := range all {
		if !c.IsRead {
			t.Errorf("congratulation %s still unread", c.ID)
		}
	}
}

func TestGetCongratulationsEmptyIsNotNil(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCongratulationService(db)

	clerkID := createTestUser(t, db)

	all, err := svc.GetCongratulations(context.Background(), clerkID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if all == nil {
		t.Error("empty list must serialize as [], not null")
	}
	if len(all) != 0 {
		t.Errorf("congratulations = %d, want 0", len(all))
	}
}
