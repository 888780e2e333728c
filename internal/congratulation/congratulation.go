package congratulation

import (
	"time"

	"github.com/google/uuid"
)

type CongratulationType string

const (
	TypeAllHabitsCompleted  CongratulationType = "all_habits_completed"
	TypeMasteryGoalAchieved CongratulationType = "mastery_goal_achieved"
	TypeHabitCompleted      CongratulationType = "habit_completed"
)

type Congratulation struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	UserID    uuid.UUID          `json:"user_id" db:"user_id"`
	Message   string             `json:"message" db:"message"`
	Type      CongratulationType `json:"type" db:"type"`
	IsRead    bool               `json:"is_read" db:"is_read"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}
