package tracking

import (
	"time"

	"github.com/google/uuid"
)

// Tracking is one "completed on this date" fact. The database enforces at
// most one row per (habit_id, user_id, date).
type Tracking struct {
	ID      uuid.UUID `json:"id" db:"id"`
	HabitID uuid.UUID `json:"habit_id" db:"habit_id"`
	UserID  uuid.UUID `json:"user_id" db:"user_id"`
	Date    time.Time `json:"date" db:"date"`
}
