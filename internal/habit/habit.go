package habit

import (
	"time"

	"github.com/google/uuid"
)

type Habit struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	TeamID          *uuid.UUID `json:"team_id,omitempty" db:"team_id"`
	Name            string     `json:"name" db:"name"`
	Description     string     `json:"description" db:"description"`
	MasteryProgress int        `json:"mastery_progress" db:"mastery_progress"`
	MasteryGoal     int        `json:"mastery_goal" db:"mastery_goal"`
	TargetDate      *time.Time `json:"target_date,omitempty" db:"target_date"`
	IsCompleted     bool       `json:"is_completed" db:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// HabitWithStatus is a habit annotated with its tracking state for one day,
// used on the dashboard.
type HabitWithStatus struct {
	Habit
	CompletedToday bool `json:"completed_today"`
	TrackedDays    int  `json:"tracked_days"`
}
