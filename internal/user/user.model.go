package user

import "time"

type User struct {
	ID                string     `json:"id"`
	ClerkID           string     `json:"clerkId"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	ImageURL          string     `json:"imageUrl,omitempty"`
	EmailVerified     bool       `json:"emailVerified"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	CurrentStreak     int        `json:"current_streak"`
	MaxStreak         int        `json:"max_streak"`
	LastCompletedDate *time.Time `json:"last_completed_date,omitempty"`
	TeamID            *string    `json:"team_id,omitempty"`
}
