package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"habitMasteryAPI/internal/habit"
	"habitMasteryAPI/internal/team"
)

func TestTeamLifecycle(t *testing.T) {
	db := setupTestDB(t)
	teams := NewTeamService(db)
	ctx := context.Background()

	ownerClerkID := createTestUser(t, db)
	memberClerkID := createTestUser(t, db)

	created, err := teams.CreateTeam(ctx, ownerClerkID, &team.CreateTeamRequest{Name: "morning crew"})
	if err != nil {
		t.Fatalf("create team failed: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(context.Background(), "DELETE FROM teams WHERE id = $1", created.ID)
	})

	// The creator is already a member.
	if err := teams.JoinTeam(ctx, ownerClerkID, created.ID); !errors.Is(err, ErrAlreadyInTeam) {
		t.Errorf("owner rejoin err = %v, want ErrAlreadyInTeam", err)
	}

	if err := teams.JoinTeam(ctx, memberClerkID, created.ID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := teams.JoinTeam(ctx, memberClerkID, created.ID); !errors.Is(err, ErrAlreadyInTeam) {
		t.Errorf("second join err = %v, want ErrAlreadyInTeam", err)
	}

	board, err := teams.GetBoard(ctx, memberClerkID, created.ID)
	if err != nil {
		t.Fatalf("board failed: %v", err)
	}
	if len(board.Members) != 2 {
		t.Errorf("members = %d, want 2", len(board.Members))
	}

	if err := teams.LeaveTeam(ctx, memberClerkID, created.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if err := teams.LeaveTeam(ctx, memberClerkID, created.ID); !errors.Is(err, ErrNotInTeam) {
		t.Errorf("second leave err = %v, want ErrNotInTeam", err)
	}

	// The board is invisible to non-members, even ones who just left.
	if _, err := teams.GetBoard(ctx, memberClerkID, created.ID); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("board after leave err = %v, want ErrTeamNotFound", err)
	}
}

func TestTeamBoardShowsTodaysTrackings(t *testing.T) {
	db := setupTestDB(t)
	teams := NewTeamService(db)
	congrats := NewCongratulationService(db)
	habits := NewHabitService(db, congrats)
	ctx := context.Background()

	clerkID := createTestUser(t, db)

	created, err := teams.CreateTeam(ctx, clerkID, &team.CreateTeamRequest{Name: "readers"})
	if err != nil {
		t.Fatalf("create team failed: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(context.Background(), "DELETE FROM teams WHERE id = $1", created.ID)
	})

	teamID := created.ID.String()
	h, err := habits.CreateHabit(ctx, clerkID, &habit.CreateHabitRequest{
		Name:   "evening pages",
		TeamID: &teamID,
	})
	if err != nil {
		t.Fatalf("create habit failed: %v", err)
	}

	if _, err := habits.ToggleTracking(ctx, clerkID, h.ID, time.Now()); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	board, err := teams.GetBoard(ctx, clerkID, created.ID)
	if err != nil {
		t.Fatalf("board failed: %v", err)
	}
	if len(board.Habits) != 1 {
		t.Fatalf("board habits = %d, want 1", len(board.Habits))
	}
	if len(board.Habits[0].CompletedBy) != 1 {
		t.Errorf("completed by = %d, want 1", len(board.Habits[0].CompletedBy))
	}
}

func TestCreateTeamValidation(t *testing.T) {
	db := setupTestDB(t)
	teams := NewTeamService(db)

	clerkID := createTestUser(t, db)

	if _, err := teams.CreateTeam(context.Background(), clerkID, &team.CreateTeamRequest{Name: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank name err = %v, want ErrInvalidInput", err)
	}
}
