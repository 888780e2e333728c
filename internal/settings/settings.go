package settings

import (
	"time"

	"github.com/google/uuid"
)

// UserSettings carries per-user defaults applied when a habit is created
// without explicit goal/target parameters.
type UserSettings struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	Theme              string    `json:"theme" db:"theme"` // light, dark, system
	DailyReminder      bool      `json:"daily_reminder" db:"daily_reminder"`
	ReminderTime       string    `json:"reminder_time" db:"reminder_time"` // HH:MM
	DefaultMasteryGoal int       `json:"default_mastery_goal" db:"default_mastery_goal"`
	DefaultPeriod      int       `json:"default_period" db:"default_period"` // days
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

type UpdateSettingsRequest struct {
	Theme              *string `json:"theme,omitempty"`
	DailyReminder      *bool   `json:"daily_reminder,omitempty"`
	ReminderTime       *string `json:"reminder_time,omitempty"`
	DefaultMasteryGoal *int    `json:"default_mastery_goal,omitempty"`
	DefaultPeriod      *int    `json:"default_period,omitempty"`
}
