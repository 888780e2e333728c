package stats

type UserStats struct {
	ActiveHabits    int  `json:"active_habits"`
	CompletedHabits int  `json:"completed_habits"`
	TotalTrackings  int  `json:"total_trackings"`
	TrackedToday    int  `json:"tracked_today"`
	AllDoneToday    bool `json:"all_done_today"`
	CurrentStreak   int  `json:"current_streak"`
	MaxStreak       int  `json:"max_streak"`
	UnreadCongrats  int  `json:"unread_congratulations"`
	InTeam          bool `json:"in_team"`
}
