package user

import (
	"habitMasteryAPI/internal/congratulation"
	"habitMasteryAPI/internal/habit"
)

type CreateUserRequest struct {
	ClerkID   string `json:"clerkId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=30"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type UpdateProfileRequest struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// DashboardResponse is the home-view payload: every habit with its status
// for the requested day, the overall completion percent and the streak as
// recalculated during this read.
type DashboardResponse struct {
	Habits          []*habit.HabitWithStatus         `json:"habits"`
	ProgressPercent int                              `json:"progress_percent"`
	CurrentStreak   int                              `json:"current_streak"`
	MaxStreak       int                              `json:"max_streak"`
	Congratulations []*congratulation.Congratulation `json:"congratulations"`
}
