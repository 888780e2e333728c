package team

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Member struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	ImageURL string    `json:"image_url" db:"image_url"`
}

// BoardHabit is one habit on the team board together with the members who
// tracked it today.
type BoardHabit struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CompletedBy []Member  `json:"completed_by"`
}

type Board struct {
	Team    *Team        `json:"team"`
	Members []Member     `json:"members"`
	Habits  []BoardHabit `json:"habits"`
}

type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
