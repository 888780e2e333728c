package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitMasteryAPI/internal/congratulation"
	"habitMasteryAPI/internal/habit"
)

// CongratulationEmitter is the slice of the congratulation service this
// helper needs; taking an interface keeps the fan-out decoupled from the
// service package.
type CongratulationEmitter interface {
	Emit(ctx context.Context, userID uuid.UUID, ctype congratulation.CongratulationType, message string) (*congratulation.Congratulation, error)
	DispatchPush(c *congratulation.Congratulation)
}

// TeamHabitMastered congratulates every teammate when a member permanently
// completes a habit shared with the team. Best-effort: failures only log.
func TeamHabitMastered(db *pgxpool.Pool, emitter CongratulationEmitter, h *habit.Habit, username string) {
	if h.TeamID == nil {
		return
	}

	bgCtx := context.Background()

	rows, err := db.Query(bgCtx, "SELECT id FROM users WHERE team_id = $1 AND id != $2", *h.TeamID, h.UserID)
	if err != nil {
		log.Printf("Failed to get team members for congratulation: %v", err)
		return
	}
	defer rows.Close()

	var memberIDs []uuid.UUID
	for rows.Next() {
		var memberID uuid.UUID
		if err := rows.Scan(&memberID); err != nil {
			continue
		}
		memberIDs = append(memberIDs, memberID)
	}

	message := fmt.Sprintf("%s completed the team habit \"%s\"!", username, h.Name)

	for _, memberID := range memberIDs {
		c, err := emitter.Emit(bgCtx, memberID, congratulation.TypeHabitCompleted, message)
		if err != nil {
			log.Printf("Failed to congratulate team member %s: %v", memberID, err)
			continue
		}
		emitter.DispatchPush(c)
	}
}
