package habit

type CreateHabitRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	TeamID      *string `json:"team_id,omitempty"`
	MasteryGoal *int    `json:"mastery_goal,omitempty"`
	TargetDate  *string `json:"target_date,omitempty"` // YYYY-MM-DD
}

type ToggleTrackingRequest struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}
